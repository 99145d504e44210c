package govtalk

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client submits GovTalk envelopes over HTTP and parses the gateway's
// responses. It performs no retries and no authentication handshake; sender
// credentials travel inside each envelope.
type Client struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// url is the gateway submission endpoint.
	url string
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// URL is the gateway submission endpoint.
	URL string
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("gateway URL is required"))
	}
	return errors.Join(errs...)
}

// NewClient creates a new GovTalk gateway client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		httpClient: httpClient,
		url:        cfg.URL,
	}, nil
}

// Send posts a fully assembled envelope to the gateway and parses the
// response. The envelope must already carry its resolved content digest. A
// URL override targets a response endpoint returned by an earlier
// submission; pass empty to use the configured endpoint.
func (c *Client) Send(ctx context.Context, envelopeXML string, urlOverride string) (*Response, error) {
	endpoint := c.url
	if urlOverride != "" {
		endpoint = urlOverride
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(envelopeXML))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	return ParseResponse(string(raw))
}

// ParseResponse parses a gateway response document.
func ParseResponse(raw string) (*Response, error) {
	var parsed govTalkResponse
	if err := xml.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &Response{
		Body:             parsed.Body.Inner,
		CorrelationID:    parsed.Header.MessageDetails.CorrelationID,
		Errors:           parsed.GovTalkDetails.Errors,
		PollInterval:     parsed.Header.MessageDetails.ResponseEndPoint.PollInterval,
		Qualifier:        parsed.Header.MessageDetails.Qualifier,
		Raw:              raw,
		ResponseEndpoint: strings.TrimSpace(parsed.Header.MessageDetails.ResponseEndPoint.URL),
	}, nil
}

// ParseErrorResponse parses the low-level error collection embedded in the
// body of a failed submission. Returns nil when the body carries no error
// response document.
func ParseErrorResponse(body string) []ResponseError {
	idx := strings.Index(body, "<ErrorResponse")
	if idx < 0 {
		return nil
	}

	var parsed errorResponseBody
	if err := xml.Unmarshal([]byte(body[idx:]), &parsed); err != nil {
		return nil
	}

	return parsed.Errors
}
