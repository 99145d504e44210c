package giftaid

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// agentNumberPattern matches the 14-digit HMRC agent number.
var agentNumberPattern = regexp.MustCompile(`^\d{14}$`)

// agentCompanyPattern matches the character set the gateway permits in an
// agent company name.
var agentCompanyPattern = regexp.MustCompile(`^[A-Za-z0-9 '&\-\.,\(\)\*/]+$`)

// ClaimRequest is one complete, immutable claim submission. Build one with a
// RequestBuilder per submission; a request is never mutated after Build, so a
// client instance can be reused without cross-call contamination.
type ClaimRequest struct {
	// agent is the submitting agent, nil outside agent multi-claim mode.
	agent *AgentDetails

	// charities maps HMRC reference to claiming organisation.
	charities map[string]Charity

	// communityBuildings are accumulated community building claims.
	communityBuildings []CommunityBuilding

	// compress enables gzip compression of the claim body.
	compress bool

	// donations is the ordered donation list.
	donations []Donation

	// gaAdjustment is the gift aid adjustment amount.
	gaAdjustment decimal.Decimal

	// gaAdjustmentReason is the free-text reason for the adjustment.
	gaAdjustmentReason string

	// gasdsAdjustment is the small donations scheme adjustment amount.
	gasdsAdjustment decimal.Decimal

	// gasdsAdjustmentReason is the free-text reason for the adjustment.
	gasdsAdjustmentReason string

	// gasdsYears are accumulated small donations scheme yearly claims.
	gasdsYears []GASDSYear

	// official is the authorised official, nil in agent mode.
	official *AuthorisedOfficial

	// periodEnd is the claim period end date.
	periodEnd time.Time
}

// Agent returns the submitting agent, or nil.
func (r *ClaimRequest) Agent() *AgentDetails { return r.agent }

// AgentMode reports whether the request is an agent multi-claim submission.
func (r *ClaimRequest) AgentMode() bool { return r.agent != nil }

// Charity returns the organisation registered under the given HMRC
// reference.
func (r *ClaimRequest) Charity(hmrcRef string) (Charity, bool) {
	c, ok := r.charities[hmrcRef]
	return c, ok
}

// Donations returns the ordered donation list.
func (r *ClaimRequest) Donations() []Donation { return r.donations }

// Official returns the authorised official, or nil.
func (r *ClaimRequest) Official() *AuthorisedOfficial { return r.official }

// PeriodEnd returns the claim period end date.
func (r *ClaimRequest) PeriodEnd() time.Time { return r.periodEnd }

// soleCharity returns the single configured organisation. Valid only in
// single-organisation mode, where Build guarantees exactly one entry.
func (r *ClaimRequest) soleCharity() Charity {
	for _, c := range r.charities {
		return c
	}
	return Charity{}
}

// RequestBuilder accumulates the parts of a claim submission and produces an
// immutable ClaimRequest. The zero value is not usable; create one with
// NewRequestBuilder.
type RequestBuilder struct {
	charities          map[string]Charity
	communityBuildings []CommunityBuilding
	compress           bool
	donations          []Donation
	agent              *AgentDetails
	gaAdj              decimal.Decimal
	gaAdjReason        string
	gasdsAdj           decimal.Decimal
	gasdsAdjReason     string
	gasdsYears         []GASDSYear
	official           *AuthorisedOfficial
	periodEnd          time.Time
}

// NewRequestBuilder creates an empty RequestBuilder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{charities: make(map[string]Charity)}
}

// Charity registers a claiming organisation, keyed by its HMRC reference.
// Registering the same reference twice replaces the earlier entry.
func (b *RequestBuilder) Charity(c Charity) *RequestBuilder {
	b.charities[c.HMRCRef] = c
	return b
}

// Donations appends donations in caller order.
func (b *RequestBuilder) Donations(donations ...Donation) *RequestBuilder {
	b.donations = append(b.donations, donations...)
	return b
}

// Agent sets the submitting agent, switching the request into agent
// multi-claim mode.
func (b *RequestBuilder) Agent(a AgentDetails) *RequestBuilder {
	if a.Address.Country == "" {
		a.Address.Country = "United Kingdom"
	}
	b.agent = &a
	return b
}

// Official sets the authorised official.
func (b *RequestBuilder) Official(o AuthorisedOfficial) *RequestBuilder {
	b.official = &o
	return b
}

// PeriodEnd sets the claim period end date.
func (b *RequestBuilder) PeriodEnd(t time.Time) *RequestBuilder {
	b.periodEnd = t
	return b
}

// GiftAidAdjustment sets the gift aid adjustment amount and its reason.
func (b *RequestBuilder) GiftAidAdjustment(amount decimal.Decimal, reason string) *RequestBuilder {
	b.gaAdj = amount
	b.gaAdjReason = reason
	return b
}

// GASDSAdjustment sets the small donations scheme adjustment amount and its
// reason.
func (b *RequestBuilder) GASDSAdjustment(amount decimal.Decimal, reason string) *RequestBuilder {
	b.gasdsAdj = amount
	b.gasdsAdjReason = reason
	return b
}

// GASDSYear appends one small donations scheme yearly claim.
func (b *RequestBuilder) GASDSYear(year string, amount decimal.Decimal) *RequestBuilder {
	b.gasdsYears = append(b.gasdsYears, GASDSYear{Amount: amount, Year: year})
	return b
}

// CommunityBuilding appends one community building claim.
func (b *RequestBuilder) CommunityBuilding(cb CommunityBuilding) *RequestBuilder {
	b.communityBuildings = append(b.communityBuildings, cb)
	return b
}

// Compress enables gzip compression of the claim body.
func (b *RequestBuilder) Compress(enabled bool) *RequestBuilder {
	b.compress = enabled
	return b
}

// validate checks the structural invariants that do not depend on individual
// donations. Per-donation problems are handled during building, where they
// skip the donation rather than failing the batch.
func (b *RequestBuilder) validate() error {
	var errs []error

	if len(b.charities) == 0 {
		errs = append(errs, errors.New("at least one charity is required"))
	}
	if b.agent == nil && len(b.charities) > 1 {
		errs = append(errs, errors.New("multiple charities require an agent"))
	}
	if b.agent != nil {
		if !agentNumberPattern.MatchString(b.agent.Number) {
			errs = append(errs, errors.New("agent number must be 14 digits"))
		}
		if b.agent.Company == "" || !agentCompanyPattern.MatchString(b.agent.Company) {
			errs = append(errs, errors.New("agent company name is missing or contains disallowed characters"))
		}
		if len(b.agent.Address.Lines) == 0 {
			errs = append(errs, errors.New("agent address requires at least one line"))
		}
	}

	return errors.Join(errs...)
}

// Build produces the immutable ClaimRequest. Accumulated donation, charity,
// adjustment and small-donations state is copied, so the builder can be
// discarded or reused afterwards.
func (b *RequestBuilder) Build() (*ClaimRequest, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("invalid claim request: %w", err)
	}

	charities := make(map[string]Charity, len(b.charities))
	for ref, c := range b.charities {
		charities[ref] = c
	}

	req := &ClaimRequest{
		agent:                 b.agent,
		charities:             charities,
		communityBuildings:    append([]CommunityBuilding(nil), b.communityBuildings...),
		compress:              b.compress,
		donations:             append([]Donation(nil), b.donations...),
		gaAdjustment:          b.gaAdj,
		gaAdjustmentReason:    b.gaAdjReason,
		gasdsAdjustment:       b.gasdsAdj,
		gasdsAdjustmentReason: b.gasdsAdjReason,
		gasdsYears:            append([]GASDSYear(nil), b.gasdsYears...),
		official:              b.official,
		periodEnd:             b.periodEnd,
	}

	return req, nil
}
