// Package giftaid builds HMRC Gift Aid (R68) claim documents from donation
// records, submits them through a GovTalk transport, and maps gateway
// validation errors back to the caller's donation identifiers.
package giftaid

import (
	"time"

	"github.com/shopspring/decimal"
)

// Regulator identifies a charity regulator recognised by HMRC.
type Regulator string

const (
	// RegulatorCCEW is the Charity Commission for England and Wales.
	RegulatorCCEW Regulator = "CCEW"

	// RegulatorCCNI is the Charity Commission for Northern Ireland.
	RegulatorCCNI Regulator = "CCNI"

	// RegulatorOSCR is the Office of the Scottish Charity Regulator.
	RegulatorOSCR Regulator = "OSCR"

	// RegulatorNone indicates the organisation is exempt from registration.
	RegulatorNone Regulator = ""
)

// Donation is a single Gift Aid donation as supplied by the caller.
//
// Either AggregationDesc is set (an aggregated donation line with no donor
// identity) or Forename, Surname, House, Date and Amount are all set. A
// missing Postcode implies Overseas.
type Donation struct {
	// AggregationDesc describes a batch of aggregated small donations.
	// Mutually exclusive with the donor identity fields.
	AggregationDesc string

	// Amount is the donation amount in GBP.
	Amount decimal.Decimal

	// Date is the date the donation was made.
	Date time.Time

	// Forename is the donor's first name.
	Forename string

	// House is the donor's house name or number.
	House string

	// ID is an optional caller-supplied identifier, reported back when the
	// gateway raises an error against this donation.
	ID string

	// OrgRef is the HMRC reference of the claiming organisation. Required
	// only in agent multi-claim mode.
	OrgRef string

	// Overseas indicates the donor has no UK postcode.
	Overseas bool

	// Postcode is the donor's postcode, empty for overseas donors.
	Postcode string

	// Sponsored indicates the donation arose from a sponsored event.
	Sponsored bool

	// Surname is the donor's last name.
	Surname string

	// Title is the donor's title (optional).
	Title string
}

// ConnectedCharity is a charity connected to the claiming organisation for
// the purposes of the small donations scheme.
type ConnectedCharity struct {
	// HMRCRef is the connected charity's HMRC reference.
	HMRCRef string

	// Name is the connected charity's name.
	Name string
}

// Charity is an organisation claiming Gift Aid.
type Charity struct {
	// ConnectedCharities lists charities connected under the small
	// donations scheme.
	ConnectedCharities []ConnectedCharity

	// HMRCRef is the organisation's HMRC charities reference. It keys the
	// organisation within a claim request.
	HMRCRef string

	// Name is the organisation's name.
	Name string

	// Regulator is the organisation's regulator, or RegulatorNone if
	// exempt from registration.
	Regulator Regulator

	// RegulatorNumber is the registration number with the regulator.
	RegulatorNumber string

	// UsesCommunityBuildings indicates the organisation claims under the
	// community buildings rules of the small donations scheme.
	UsesCommunityBuildings bool
}

// AuthorisedOfficial is the person authorised to make the claim. Required
// unless submitting as an agent.
type AuthorisedOfficial struct {
	// Forename is the official's first name.
	Forename string

	// Phone is the official's contact phone number.
	Phone string

	// Postcode is the official's postcode.
	Postcode string

	// Surname is the official's last name.
	Surname string

	// Title is the official's title (optional).
	Title string
}

// AgentAddress is the postal address of a submitting agent.
type AgentAddress struct {
	// Country is the address country. Defaults to "United Kingdom" when
	// empty.
	Country string

	// Lines are the address lines, in order.
	Lines []string

	// Postcode is the address postcode (optional).
	Postcode string
}

// AgentContact is the optional contact block for a submitting agent.
type AgentContact struct {
	// Email is the contact email address.
	Email string

	// Fax is the contact fax number.
	Fax string

	// Forename is the contact's first name.
	Forename string

	// Phone is the contact phone number.
	Phone string

	// Surname is the contact's last name.
	Surname string

	// Title is the contact's title (optional).
	Title string
}

// AgentDetails identifies a third-party agent submitting claims on behalf of
// multiple organisations. Setting an agent on a request switches the whole
// submission into agent multi-claim mode.
type AgentDetails struct {
	// Address is the agent's postal address.
	Address AgentAddress

	// Company is the agent's company name. The gateway restricts the
	// permitted character set.
	Company string

	// Contact is the optional contact block.
	Contact *AgentContact

	// Number is the agent's 14-digit HMRC agent number.
	Number string

	// Reference is an optional agent's own reference for the submission.
	Reference string
}

// GASDSYear is one small-donations-scheme yearly claim line.
type GASDSYear struct {
	// Amount is the amount claimed for the year in GBP.
	Amount decimal.Decimal

	// Year is the tax year claimed, e.g. "2024".
	Year string
}

// CommunityBuilding is one community building claim line under the small
// donations scheme.
type CommunityBuilding struct {
	// Address is the building's address.
	Address string

	// Amount is the amount claimed for this building and year in GBP.
	Amount decimal.Decimal

	// Name is the building's name.
	Name string

	// Year is the tax year claimed.
	Year string
}

// DonationIDMap maps claim ordinal, then GAD ordinal, to the caller-supplied
// donation identifier. Both ordinals are 1-indexed and follow emission order
// within the built claim document, not the caller's slice indices.
//
// The map is rebuilt on every build and consumed only when mapping errors for
// the immediately following submission.
type DonationIDMap map[int]map[int]string

// ErrorEntry is one error reported by the gateway.
type ErrorEntry struct {
	// Code is the gateway error number.
	Code string

	// DonationID is the caller-supplied identifier of the donation the
	// error location resolved to, or empty if unresolvable.
	DonationID string

	// Location is the schema location path of the error, when reported.
	Location string

	// Text is the human-readable error message.
	Text string
}

// ErrorSet holds gateway errors grouped by the transport's categories.
type ErrorSet struct {
	// Business errors relate to the content of the claim itself.
	Business []ErrorEntry

	// Fatal errors prevented the message from being processed.
	Fatal []ErrorEntry

	// Recoverable errors may succeed on resubmission.
	Recoverable []ErrorEntry

	// Warning entries did not prevent processing.
	Warning []ErrorEntry
}

// Empty reports whether no category contains any entries.
func (e ErrorSet) Empty() bool {
	return len(e.Business) == 0 && len(e.Fatal) == 0 &&
		len(e.Recoverable) == 0 && len(e.Warning) == 0
}

// SubmissionResult is the outcome of a claim submission.
type SubmissionResult struct {
	// CorrelationID is the gateway's identifier for the submission, used
	// to poll for the final outcome.
	CorrelationID string

	// DonationIDsWithErrors lists, in order of first appearance, the
	// distinct caller donation identifiers implicated by business errors.
	DonationIDsWithErrors []string

	// Endpoint is the gateway endpoint to poll for the outcome.
	Endpoint string

	// Errors holds the categorised gateway errors for failed submissions.
	Errors ErrorSet

	// Interval is the suggested poll interval in seconds.
	Interval string

	// Submitted indicates the claim was accepted for processing.
	Submitted bool
}

// PollOutcome distinguishes the possible results of polling a submission.
type PollOutcome string

const (
	// PollOutcomeError means the gateway reported errors for the
	// submission.
	PollOutcomeError PollOutcome = "error"

	// PollOutcomeFinal means the gateway returned the final response.
	PollOutcomeFinal PollOutcome = "final"

	// PollOutcomePending means the submission is still being processed.
	PollOutcomePending PollOutcome = "pending"
)

// PollResult is the outcome of polling a previously obtained correlation id.
type PollResult struct {
	// CorrelationID echoes the polled correlation id.
	CorrelationID string

	// Endpoint is the endpoint to continue polling while pending.
	Endpoint string

	// Errors holds the categorised gateway errors for error outcomes.
	Errors ErrorSet

	// Interval is the suggested poll interval in seconds while pending.
	Interval string

	// Outcome classifies the response.
	Outcome PollOutcome

	// Response is the raw final response payload for final outcomes.
	Response string
}
