// Package govtalk provides a client for the GovTalk envelope-based message
// gateway used by HMRC online services.
package govtalk

import "encoding/xml"

// Error severity types reported by the gateway.
const (
	// ErrorTypeBusiness marks errors in the submitted document content.
	ErrorTypeBusiness = "business"

	// ErrorTypeFatal marks errors that prevented processing entirely.
	ErrorTypeFatal = "fatal"

	// ErrorTypeRecoverable marks errors that may clear on resubmission.
	ErrorTypeRecoverable = "recoverable"

	// ErrorTypeWarning marks conditions that did not prevent processing.
	ErrorTypeWarning = "warning"
)

// Qualifier values in gateway responses.
const (
	// QualifierAcknowledgement confirms receipt of an asynchronous
	// submission.
	QualifierAcknowledgement = "acknowledgement"

	// QualifierError marks a response carrying gateway errors.
	QualifierError = "error"

	// QualifierResponse carries the final outcome of a submission.
	QualifierResponse = "response"
)

// Key is one routing key in the envelope's GovTalkDetails.
type Key struct {
	// Type is the key type, e.g. "CHARID" or "AGENTNO".
	Type string

	// Value is the key value.
	Value string
}

// MessageDetails identifies the message class and routing of an envelope.
type MessageDetails struct {
	// Class is the gateway message class, e.g. "HMRC-CHAR-CLM".
	Class string

	// CorrelationID is the gateway correlation id, set when polling.
	CorrelationID string

	// Function is the message function, e.g. "submit" or "list".
	Function string

	// Qualifier is the message qualifier, e.g. "request" or "poll".
	Qualifier string

	// Transformation is the requested response transformation, normally
	// "XML".
	Transformation string
}

// Channel identifies the software submitting the message.
type Channel struct {
	// Product is the software product name.
	Product string

	// URI is the vendor identifier issued by the gateway.
	URI string

	// Version is the software product version.
	Version string
}

// Envelope is one outgoing GovTalk message. The Body is raw XML, already
// serialized by the caller; it is embedded verbatim so the caller can
// substitute a content digest over the exact transmitted bytes.
type Envelope struct {
	// Body is the raw XML message body.
	Body string

	// Channel identifies the submitting software.
	Channel Channel

	// Keys are the routing keys for the target service.
	Keys []Key

	// MessageDetails identifies the message class and routing.
	MessageDetails MessageDetails

	// Password is the sender's gateway password, sent with the "clear"
	// authentication method.
	Password string

	// SenderID is the sender's gateway identifier.
	SenderID string

	// TestMode routes the message to the gateway test service.
	TestMode bool
}

// ResponseError is one error reported in a gateway response or embedded
// error response document.
type ResponseError struct {
	// Location is the schema location path of the error, when reported.
	Location string `xml:"Location"`

	// Number is the gateway error number.
	Number string `xml:"Number"`

	// RaisedBy names the component that raised the error.
	RaisedBy string `xml:"RaisedBy"`

	// Text is the human-readable error message.
	Text string `xml:"Text"`

	// Type is the error severity, one of the ErrorType constants.
	Type string `xml:"Type"`
}

// Response is a parsed gateway response.
type Response struct {
	// Body is the raw XML content of the response body.
	Body string

	// CorrelationID is the gateway's identifier for the submission.
	CorrelationID string

	// Errors are the categorised errors reported in the response header.
	Errors []ResponseError

	// PollInterval is the suggested poll interval in seconds.
	PollInterval string

	// Qualifier classifies the response.
	Qualifier string

	// Raw is the complete response document.
	Raw string

	// ResponseEndpoint is the endpoint to poll for the final outcome.
	ResponseEndpoint string
}

// Success reports whether the gateway accepted the message: a non-error
// qualifier and no reported errors.
func (r *Response) Success() bool {
	return r.Qualifier != QualifierError && len(r.Errors) == 0
}

// govTalkResponse mirrors the response document shape for unmarshalling.
type govTalkResponse struct {
	XMLName xml.Name `xml:"GovTalkMessage"`

	Header struct {
		MessageDetails struct {
			Class            string `xml:"Class"`
			CorrelationID    string `xml:"CorrelationID"`
			Function         string `xml:"Function"`
			Qualifier        string `xml:"Qualifier"`
			ResponseEndPoint struct {
				PollInterval string `xml:"PollInterval,attr"`
				URL          string `xml:",chardata"`
			} `xml:"ResponseEndPoint"`
		} `xml:"MessageDetails"`
	} `xml:"Header"`

	GovTalkDetails struct {
		Errors []ResponseError `xml:"GovTalkErrors>Error"`
	} `xml:"GovTalkDetails"`

	Body struct {
		Inner string `xml:",innerxml"`
	} `xml:"Body"`
}

// errorResponseBody mirrors the embedded error response document carried in
// the body of failed submissions.
type errorResponseBody struct {
	XMLName xml.Name        `xml:"ErrorResponse"`
	Errors  []ResponseError `xml:"Error"`
}
