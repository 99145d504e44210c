package giftaid

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thebiggive/hmrc-gift-aid/internal/govtalk"
)

// Gateway message classes for Gift Aid claims.
const (
	// claimClassSingle is the message class for a single-organisation
	// claim.
	claimClassSingle = "HMRC-CHAR-CLM"

	// claimClassMulti is the message class for an agent multi-claim.
	claimClassMulti = "HMRC-CHAR-CLM-MULTI"
)

// ErrNotSubmitted is returned when a submission fails its preconditions and
// no network attempt was made.
var ErrNotSubmitted = errors.New("claim not submitted")

// Transport delivers a fully assembled envelope to the gateway and returns
// its parsed response. internal/govtalk provides the production
// implementation.
type Transport interface {
	// Send posts an envelope, optionally to an endpoint override, and
	// parses the response.
	Send(ctx context.Context, envelopeXML string, urlOverride string) (*govtalk.Response, error)
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// Logger is the structured logger for the client. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Password is the sender's gateway password.
	Password string

	// Product is the submitting software product name.
	Product string

	// SenderID is the sender's gateway identifier.
	SenderID string

	// TestMode routes submissions to the gateway test service.
	TestMode bool

	// Transport delivers envelopes to the gateway.
	Transport Transport

	// VendorID is the vendor identifier issued by the gateway.
	VendorID string

	// Version is the submitting software product version.
	Version string
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	if c.Product == "" {
		errs = append(errs, errors.New("product is required"))
	}
	if c.SenderID == "" {
		errs = append(errs, errors.New("sender ID is required"))
	}
	if c.Transport == nil {
		errs = append(errs, errors.New("transport is required"))
	}
	if c.VendorID == "" {
		errs = append(errs, errors.New("vendor ID is required"))
	}
	if c.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	return errors.Join(errs...)
}

// Client submits Gift Aid claims through a GovTalk transport. A Client holds
// no per-submission state; each Submit call is synchronous, performs at most
// one network round trip, and carries everything it needs in its
// ClaimRequest. Concurrent use requires external synchronization only
// because the transport may not be safe for it.
type Client struct {
	logger    *slog.Logger
	password  string
	product   string
	senderID  string
	testMode  bool
	transport Transport
	vendorID  string
	version   string
}

// New creates a new Gift Aid submission client.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		logger:    logger,
		password:  cfg.Password,
		product:   cfg.Product,
		senderID:  cfg.SenderID,
		testMode:  cfg.TestMode,
		transport: cfg.Transport,
		vendorID:  cfg.VendorID,
		version:   cfg.Version,
	}, nil
}

// Submit builds the claim document for the request, wraps it in a GovTalk
// envelope with its IRmark resolved, and delivers it to the gateway.
//
// Precondition failures (missing claim period end; missing authorised
// official outside agent mode) are logged and returned as ErrNotSubmitted
// without any network attempt. A gateway response carrying errors yields a
// SubmissionResult with Submitted false and the mapped error categories; it
// is not an error return.
func (c *Client) Submit(ctx context.Context, req *ClaimRequest) (*SubmissionResult, error) {
	if err := c.checkPreconditions(req); err != nil {
		return nil, err
	}

	fragment, idMap := buildClaimXML(req, c.logger)

	body, err := c.assembleBody(req, fragment)
	if err != nil {
		return nil, err
	}

	envelope := c.newEnvelope(govtalk.MessageDetails{
		Class:          messageClass(req.AgentMode()),
		Function:       "submit",
		Qualifier:      "request",
		Transformation: "XML",
	}, submissionKeys(req), body)

	// The IRmark is substituted after the whole envelope is serialized so
	// the digest covers the complete body content, compressed or raw.
	finalXML, err := embedIRmark(envelope.Render())
	if err != nil {
		return nil, err
	}

	c.logger.Info("submitting gift aid claim",
		"mode", messageClass(req.AgentMode()),
		"donations", len(req.Donations()),
		"period_end", req.PeriodEnd().Format(dateFormat))

	resp, err := c.transport.Send(ctx, finalXML, "")
	if err != nil {
		return nil, fmt.Errorf("sending claim: %w", err)
	}

	if resp.Success() {
		c.logger.Info("claim accepted",
			"correlation_id", resp.CorrelationID,
			"endpoint", resp.ResponseEndpoint,
			"interval", resp.PollInterval)

		return &SubmissionResult{
			CorrelationID: resp.CorrelationID,
			Endpoint:      resp.ResponseEndpoint,
			Interval:      resp.PollInterval,
			Submitted:     true,
		}, nil
	}

	errs, donationIDs := mapErrors(resp, idMap)

	c.logger.Error("claim rejected",
		"correlation_id", resp.CorrelationID,
		"business_errors", len(errs.Business),
		"fatal_errors", len(errs.Fatal),
		"donations_with_errors", len(donationIDs))

	return &SubmissionResult{
		CorrelationID:         resp.CorrelationID,
		DonationIDsWithErrors: donationIDs,
		Errors:                errs,
		Submitted:             false,
	}, nil
}

// RequestClaimData asks the gateway for the claim data held for the
// request's organisation and returns the raw response body. It shares the
// submission envelope skeleton with no claim body.
func (c *Client) RequestClaimData(ctx context.Context, req *ClaimRequest) (string, error) {
	envelope := c.newEnvelope(govtalk.MessageDetails{
		Class:     messageClass(req.AgentMode()),
		Function:  "list",
		Qualifier: "request",
	}, submissionKeys(req), "")

	resp, err := c.transport.Send(ctx, envelope.Render(), "")
	if err != nil {
		return "", fmt.Errorf("requesting claim data: %w", err)
	}

	if !resp.Success() {
		errs, _ := mapErrors(resp, nil)
		return "", fmt.Errorf("claim data request rejected: %d errors reported",
			len(errs.Business)+len(errs.Fatal)+len(errs.Recoverable)+len(errs.Warning))
	}

	return resp.Body, nil
}

// PollRequest identifies a previously submitted claim to poll.
type PollRequest struct {
	// CorrelationID is the correlation id returned at submission.
	CorrelationID string

	// Endpoint is the response endpoint returned at submission; empty
	// uses the transport's configured endpoint.
	Endpoint string

	// Multi indicates the original submission was an agent multi-claim.
	Multi bool
}

// PollStatus polls a previously obtained correlation id. It distinguishes a
// still-pending response, which echoes the endpoint and interval to continue
// polling with, from a final response carrying the raw outcome payload, from
// an error response.
func (c *Client) PollStatus(ctx context.Context, p PollRequest) (*PollResult, error) {
	if p.CorrelationID == "" {
		return nil, errors.New("correlation ID is required")
	}

	envelope := c.newEnvelope(govtalk.MessageDetails{
		Class:         messageClass(p.Multi),
		CorrelationID: p.CorrelationID,
		Function:      "submit",
		Qualifier:     "poll",
	}, nil, "")

	resp, err := c.transport.Send(ctx, envelope.Render(), p.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("polling submission: %w", err)
	}

	result := &PollResult{CorrelationID: resp.CorrelationID}

	switch {
	case resp.Qualifier == govtalk.QualifierError || len(resp.Errors) != 0:
		result.Errors, _ = mapErrors(resp, nil)
		result.Outcome = PollOutcomeError
	case resp.Qualifier == govtalk.QualifierAcknowledgement:
		result.Endpoint = resp.ResponseEndpoint
		result.Interval = resp.PollInterval
		result.Outcome = PollOutcomePending
	default:
		result.Outcome = PollOutcomeFinal
		result.Response = resp.Raw
	}

	return result, nil
}

// checkPreconditions verifies the request can be submitted at all. Failures
// are logged and wrapped in ErrNotSubmitted; no network attempt follows.
func (c *Client) checkPreconditions(req *ClaimRequest) error {
	if req.PeriodEnd().IsZero() {
		c.logger.Error("claim period end not set")
		return fmt.Errorf("claim period end not set: %w", ErrNotSubmitted)
	}

	if !req.AgentMode() && req.Official() == nil {
		c.logger.Error("authorised official not set")
		return fmt.Errorf("authorised official not set: %w", ErrNotSubmitted)
	}

	return nil
}

// newEnvelope builds the envelope skeleton shared by submissions, claim data
// requests and polls.
func (c *Client) newEnvelope(details govtalk.MessageDetails, keys []govtalk.Key, body string) *govtalk.Envelope {
	return &govtalk.Envelope{
		Body: body,
		Channel: govtalk.Channel{
			Product: c.product,
			URI:     c.vendorID,
			Version: c.version,
		},
		Keys:           keys,
		MessageDetails: details,
		Password:       c.password,
		SenderID:       c.senderID,
		TestMode:       c.testMode,
	}
}

// assembleBody wraps the claim fragment in the IRenvelope: the IRheader with
// its IRmark placeholder, the authorised official or agent block, the
// declaration, and the claim content, gzip-compressed when requested.
func (c *Client) assembleBody(req *ClaimRequest, fragment string) (string, error) {
	w := &xmlFragmentWriter{}

	w.sb.WriteString(`<IRenvelope xmlns="http://www.govtalk.gov.uk/taxation/charities/r68/2">`)

	key := submissionKeys(req)[0]
	w.open("IRheader")
	w.open("Keys")
	w.sb.WriteString(`<Key Type="` + key.Type + `">`)
	w.sb.WriteString(key.Value)
	w.sb.WriteString(`</Key>`)
	w.close("Keys")
	w.element("PeriodEnd", req.PeriodEnd().Format(dateFormat))
	w.element("DefaultCurrency", "GBP")
	w.sb.WriteString(`<IRmark Type="generic">` + irmarkPlaceholder + `</IRmark>`)
	if req.AgentMode() {
		w.element("Sender", "Agent")
	} else {
		w.element("Sender", "Individual")
	}
	w.close("IRheader")

	w.open("R68")

	if req.AgentMode() {
		writeAgent(w, req.Agent())
	} else {
		writeOfficial(w, req.Official())
	}

	w.element("Declaration", "yes")

	if req.compress {
		compressed, err := compressFragment(fragment)
		if err != nil {
			return "", fmt.Errorf("compressing claim body: %w", err)
		}
		w.sb.WriteString(`<CompressedPart Type="gzip">` + compressed + `</CompressedPart>`)
	} else {
		w.sb.WriteString(fragment)
	}

	w.close("R68")
	w.sb.WriteString(`</IRenvelope>`)

	return w.String(), nil
}

// writeOfficial writes the authorised official block.
func writeOfficial(w *xmlFragmentWriter, o *AuthorisedOfficial) {
	w.open("AuthOfficial")
	w.open("OffID")
	w.elementIf("Ttl", o.Title)
	w.element("Fore", o.Forename)
	w.element("Sur", o.Surname)
	w.close("OffID")
	w.element("Phone", o.Phone)
	w.element("Postcode", o.Postcode)
	w.close("AuthOfficial")
}

// writeAgent writes the agent block: company, address with its default
// country, and the optional contact and reference.
func writeAgent(w *xmlFragmentWriter, a *AgentDetails) {
	w.open("Agent")
	w.element("Company", a.Company)

	w.open("Address")
	for _, line := range a.Address.Lines {
		w.element("Line", line)
	}
	w.elementIf("Postcode", a.Address.Postcode)
	w.element("Country", a.Address.Country)
	w.close("Address")

	if a.Contact != nil {
		w.open("Contact")
		w.open("Name")
		w.elementIf("Ttl", a.Contact.Title)
		w.element("Fore", a.Contact.Forename)
		w.element("Sur", a.Contact.Surname)
		w.close("Name")
		w.elementIf("Email", a.Contact.Email)
		w.elementIf("Phone", a.Contact.Phone)
		w.elementIf("Fax", a.Contact.Fax)
		w.close("Contact")
	}

	w.elementIf("AgentRef", a.Reference)
	w.close("Agent")
}

// messageClass selects the gateway message class for the submission mode.
func messageClass(multi bool) string {
	if multi {
		return claimClassMulti
	}
	return claimClassSingle
}

// submissionKeys builds the routing keys for the request's mode: the agent
// number in agent mode, the sole organisation's HMRC reference otherwise.
func submissionKeys(req *ClaimRequest) []govtalk.Key {
	if req.AgentMode() {
		return []govtalk.Key{{Type: "AGENTNO", Value: req.Agent().Number}}
	}
	return []govtalk.Key{{Type: "CHARID", Value: req.soleCharity().HMRCRef}}
}

// compressFragment gzip-compresses the claim fragment at maximum compression
// and base64-encodes the result.
func compressFragment(fragment string) (string, error) {
	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write([]byte(fragment)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
