package claimfile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/thebiggive/hmrc-gift-aid/internal/giftaid"
)

const validDocument = `{
	"period_end": "2024-04-05",
	"official": {
		"title": "Mrs",
		"forename": "Ada",
		"surname": "Lovelace",
		"phone": "020 7946 0000",
		"postcode": "N1 7GU"
	},
	"donations": [
		{
			"id": "don-1",
			"forename": "Grace",
			"surname": "Hopper",
			"house": "1",
			"postcode": "SW1A 1AA",
			"amount": "25.00",
			"date": "2024-01-15"
		},
		{
			"id": "don-2",
			"aggregation": "Street collections under 20 GBP",
			"amount": "180.50",
			"date": "2024-02-01"
		}
	]
}`

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		wantErr string
	}{
		"valid document": {
			input: validDocument,
		},
		"empty object": {
			input: `{}`,
		},
		"malformed json": {
			input:   `{"period_end": `,
			wantErr: "parsing claim document",
		},
		"wrong type for donations": {
			input:   `{"donations": "not a list"}`,
			wantErr: "parsing claim document",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(tc.input))

			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				require.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc)
		})
	}
}

func TestParseFields(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(validDocument))
	require.NoError(t, err)

	require.Equal(t, "2024-04-05", doc.PeriodEnd)
	require.False(t, doc.Compress)

	require.NotNil(t, doc.Official)
	require.Equal(t, "Ada", doc.Official.Forename)
	require.Equal(t, "Lovelace", doc.Official.Surname)

	require.Len(t, doc.Donations, 2)
	require.Equal(t, "don-1", doc.Donations[0].ID)
	require.Equal(t, "25.00", doc.Donations[0].Amount)
	require.Equal(t, "Street collections under 20 GBP", doc.Donations[1].Aggregation)
}

func TestDocumentRequest(t *testing.T) {
	t.Parallel()

	charity := giftaid.Charity{HMRCRef: "AB12345", Name: "St Example Hospice"}

	doc, err := Parse([]byte(validDocument))
	require.NoError(t, err)

	req, err := doc.Request(charity)
	require.NoError(t, err)

	require.Equal(t, "2024-04-05", req.PeriodEnd().Format("2006-01-02"))

	got, ok := req.Charity("AB12345")
	require.True(t, ok)
	require.Equal(t, "St Example Hospice", got.Name)

	require.NotNil(t, req.Official())
	require.Equal(t, "Ada", req.Official().Forename)

	donations := req.Donations()
	require.Len(t, donations, 2)
	require.Equal(t, "don-1", donations[0].ID)
	require.Equal(t, "Grace", donations[0].Forename)
	require.True(t, donations[0].Amount.Equal(decimal.RequireFromString("25.00")))
	require.Equal(t, "2024-01-15", donations[0].Date.Format("2006-01-02"))
	require.Equal(t, "Street collections under 20 GBP", donations[1].AggregationDesc)
}

func TestDocumentRequestErrors(t *testing.T) {
	t.Parallel()

	charity := giftaid.Charity{HMRCRef: "AB12345", Name: "St Example Hospice"}

	tests := map[string]struct {
		charity giftaid.Charity
		mutate  func(doc *Document)
		wantErr string
	}{
		"missing charity reference": {
			charity: giftaid.Charity{Name: "St Example Hospice"},
			mutate:  func(doc *Document) {},
			wantErr: "charity HMRC reference is required",
		},
		"unparsable period end": {
			charity: charity,
			mutate: func(doc *Document) {
				doc.PeriodEnd = "05/04/2024"
			},
			wantErr: "parsing period end",
		},
		"unparsable donation date fails the whole document": {
			charity: charity,
			mutate: func(doc *Document) {
				doc.Donations[1].Date = "yesterday"
			},
			wantErr: `parsing date for donation "don-2"`,
		},
		"unparsable donation amount fails the whole document": {
			charity: charity,
			mutate: func(doc *Document) {
				doc.Donations[0].Amount = "twenty five"
			},
			wantErr: `parsing amount for donation "don-1"`,
		},
		"missing official": {
			charity: charity,
			mutate: func(doc *Document) {
				doc.Official = nil
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(validDocument))
			require.NoError(t, err)
			tc.mutate(doc)

			req, err := doc.Request(tc.charity)

			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				require.Nil(t, req)
				return
			}
			// The official is checked at submission, not here; the
			// request still builds.
			require.NoError(t, err)
			require.Nil(t, req.Official())
		})
	}
}

func TestDocumentRequestCompress(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(validDocument))
	require.NoError(t, err)
	doc.Compress = true

	req, err := doc.Request(giftaid.Charity{HMRCRef: "AB12345", Name: "St Example Hospice"})
	require.NoError(t, err)
	require.NotNil(t, req)
}
