// Package claimfile parses claim input documents: the JSON payload listing
// the donations, authorised official and claim details for one submission.
// The same document shape is accepted as the Lambda event and as a local
// input file.
package claimfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thebiggive/hmrc-gift-aid/internal/giftaid"
)

// Donation is one donation line in a claim document.
type Donation struct {
	// Aggregation describes a batch of aggregated small donations.
	// Mutually exclusive with the donor identity fields.
	Aggregation string `json:"aggregation,omitempty"`

	// Amount is the donation amount in GBP, as a decimal string.
	Amount string `json:"amount"`

	// Date is the donation date, YYYY-MM-DD.
	Date string `json:"date"`

	// Forename is the donor's first name.
	Forename string `json:"forename,omitempty"`

	// House is the donor's house name or number.
	House string `json:"house,omitempty"`

	// ID is the caller's donation identifier, echoed back against gateway
	// errors.
	ID string `json:"id,omitempty"`

	// Org is the HMRC reference of the claiming organisation, for agent
	// multi-claim documents.
	Org string `json:"org,omitempty"`

	// Overseas indicates the donor has no UK postcode.
	Overseas bool `json:"overseas,omitempty"`

	// Postcode is the donor's postcode.
	Postcode string `json:"postcode,omitempty"`

	// Sponsored indicates a sponsored-event donation.
	Sponsored bool `json:"sponsored,omitempty"`

	// Surname is the donor's last name.
	Surname string `json:"surname,omitempty"`

	// Title is the donor's title.
	Title string `json:"title,omitempty"`
}

// Official is the authorised official in a claim document.
type Official struct {
	// Forename is the official's first name.
	Forename string `json:"forename"`

	// Phone is the official's phone number.
	Phone string `json:"phone"`

	// Postcode is the official's postcode.
	Postcode string `json:"postcode"`

	// Surname is the official's last name.
	Surname string `json:"surname"`

	// Title is the official's title.
	Title string `json:"title,omitempty"`
}

// Document is one complete claim input document.
type Document struct {
	// Compress enables gzip compression of the claim body.
	Compress bool `json:"compress,omitempty"`

	// Donations is the ordered donation batch.
	Donations []Donation `json:"donations"`

	// Official is the authorised official making the claim.
	Official *Official `json:"official"`

	// PeriodEnd is the claim period end date, YYYY-MM-DD.
	PeriodEnd string `json:"period_end"`
}

// Parse decodes a claim document from JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing claim document: %w", err)
	}
	return &doc, nil
}

// Request assembles the immutable claim request for the document on behalf of
// the given organisation. Per-donation dates and amounts are parsed here; a
// donation that cannot be parsed fails the whole document rather than being
// silently dropped.
func (d *Document) Request(charity giftaid.Charity) (*giftaid.ClaimRequest, error) {
	if charity.HMRCRef == "" {
		return nil, errors.New("charity HMRC reference is required")
	}

	periodEnd, err := time.Parse(time.DateOnly, d.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("parsing period end: %w", err)
	}

	builder := giftaid.NewRequestBuilder().
		Charity(charity).
		PeriodEnd(periodEnd).
		Compress(d.Compress)

	if d.Official != nil {
		builder.Official(giftaid.AuthorisedOfficial{
			Forename: d.Official.Forename,
			Phone:    d.Official.Phone,
			Postcode: d.Official.Postcode,
			Surname:  d.Official.Surname,
			Title:    d.Official.Title,
		})
	}

	for _, donation := range d.Donations {
		parsed, err := donation.toDomain()
		if err != nil {
			return nil, err
		}
		builder.Donations(parsed)
	}

	return builder.Build()
}

func (d Donation) toDomain() (giftaid.Donation, error) {
	date, err := time.Parse(time.DateOnly, d.Date)
	if err != nil {
		return giftaid.Donation{}, fmt.Errorf("parsing date for donation %q: %w", d.ID, err)
	}

	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return giftaid.Donation{}, fmt.Errorf("parsing amount for donation %q: %w", d.ID, err)
	}

	return giftaid.Donation{
		AggregationDesc: d.Aggregation,
		Amount:          amount,
		Date:            date,
		Forename:        d.Forename,
		House:           d.House,
		ID:              d.ID,
		OrgRef:          d.Org,
		Overseas:        d.Overseas,
		Postcode:        d.Postcode,
		Sponsored:       d.Sponsored,
		Surname:         d.Surname,
		Title:           d.Title,
	}, nil
}
