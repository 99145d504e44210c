package giftaid

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ucarion/c14n"
)

// irmarkPlaceholder is the token the envelope carries in place of the digest
// until final assembly.
const irmarkPlaceholder = "IRmark+Token"

// ErrMalformedEnvelope is returned when the envelope does not carry exactly
// one IRmark placeholder token.
var ErrMalformedEnvelope = errors.New("envelope must contain exactly one IRmark placeholder")

// bodyPattern captures the GovTalk Body subtree of a serialized envelope.
var bodyPattern = regexp.MustCompile(`(?s)<Body>(.*)</Body>`)

// irmarkElementPattern matches the IRmark element, which is excluded from
// the digest.
var irmarkElementPattern = regexp.MustCompile(`(?s)<IRmark[^>]*>.*?</IRmark>`)

// computeIRmark computes the IRmark content digest for a fully serialized
// envelope: the Body subtree, minus the IRmark element itself, canonicalized
// per Canonical XML 1.0 and hashed with SHA-1. The raw digest bytes are
// returned; the caller base64-encodes them into the envelope.
//
// The Body is extracted textually, so its in-scope namespace declaration is
// reconstructed explicitly before canonicalization.
func computeIRmark(envelope string) ([]byte, error) {
	if strings.Count(envelope, irmarkPlaceholder) != 1 {
		return nil, ErrMalformedEnvelope
	}

	m := bodyPattern.FindStringSubmatch(envelope)
	if m == nil {
		return nil, fmt.Errorf("envelope has no Body element: %w", ErrMalformedEnvelope)
	}

	body := irmarkElementPattern.ReplaceAllString(m[1], "")
	body = `<Body xmlns="http://www.govtalk.gov.uk/CM/envelope">` + body + `</Body>`

	canonical, err := c14n.Canonicalize(xml.NewDecoder(strings.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("canonicalizing envelope body: %w", err)
	}

	sum := sha1.Sum(canonical)
	return sum[:], nil
}

// embedIRmark computes the envelope's IRmark and substitutes it, base64
// encoded, for the placeholder token. This is the final assembly step: the
// digest covers the complete body content, compressed or raw.
func embedIRmark(envelope string) (string, error) {
	digest, err := computeIRmark(envelope)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(digest)
	return strings.Replace(envelope, irmarkPlaceholder, encoded, 1), nil
}
