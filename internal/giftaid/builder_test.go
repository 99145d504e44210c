package giftaid

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func singleOrgRequest(t *testing.T, donations ...Donation) *ClaimRequest {
	t.Helper()

	req, err := NewRequestBuilder().
		Charity(Charity{
			HMRCRef:         "AB12345",
			Name:            "Hope Trust",
			Regulator:       RegulatorCCEW,
			RegulatorNumber: "1089464",
		}).
		Official(AuthorisedOfficial{
			Forename: "Jo",
			Phone:    "020 7946 0000",
			Postcode: "N1 7AA",
			Surname:  "Bloggs",
		}).
		PeriodEnd(date("2024-04-05")).
		Donations(donations...).
		Build()
	require.NoError(t, err)

	return req
}

func TestBuildClaimXML_SingleOrganisation(t *testing.T) {
	t.Parallel()

	req := singleOrgRequest(t,
		Donation{
			Amount:   amount("25.00"),
			Date:     date("2024-04-01"),
			Forename: "John",
			House:    "12",
			ID:       "d-1",
			Postcode: "SW1A 1AA",
			Surname:  "Smith",
			Title:    "Mr",
		},
		Donation{
			Amount:    amount("10.50"),
			Date:      date("2024-03-15"),
			Forename:  "Ann",
			House:     "Rose Cottage",
			ID:        "d-2",
			Overseas:  true,
			Sponsored: true,
			Surname:   "Jones",
		},
	)

	fragment, idMap := buildClaimXML(req, discardLogger())

	want := `<Claim>` +
		`<OrgName>Hope Trust</OrgName>` +
		`<HMRCref>AB12345</HMRCref>` +
		`<Regulator><RegName>CCEW</RegName><RegNo>1089464</RegNo></Regulator>` +
		`<Repayment>` +
		`<GAD>` +
		`<Donor><Ttl>Mr</Ttl><Fore>John</Fore><Sur>Smith</Sur><House>12</House><Postcode>SW1A 1AA</Postcode></Donor>` +
		`<Date>2024-04-01</Date><Total>25.00</Total>` +
		`</GAD>` +
		`<GAD>` +
		`<Donor><Fore>Ann</Fore><Sur>Jones</Sur><House>Rose Cottage</House><Overseas>yes</Overseas></Donor>` +
		`<Sponsored>yes</Sponsored>` +
		`<Date>2024-03-15</Date><Total>10.50</Total>` +
		`</GAD>` +
		`<EarliestGAdate>2024-03-15</EarliestGAdate>` +
		`</Repayment>` +
		`<GASDS><ConnectedCharities>no</ConnectedCharities><CommBldgs>no</CommBldgs></GASDS>` +
		`</Claim>`

	require.Equal(t, want, fragment)
	require.Equal(t, DonationIDMap{1: {1: "d-1", 2: "d-2"}}, idMap)
}

func TestBuildClaimXML_Deterministic(t *testing.T) {
	t.Parallel()

	req := singleOrgRequest(t,
		Donation{
			Amount:   amount("25.00"),
			Date:     date("2024-04-01"),
			Forename: "John",
			House:    "12",
			ID:       "d-1",
			Postcode: "SW1A 1AA",
			Surname:  "Smith",
		},
		Donation{
			AggregationDesc: "Street collections under 20 pounds",
			Amount:          amount("150.00"),
			Date:            date("2024-02-01"),
			ID:              "d-2",
		},
	)

	first, firstMap := buildClaimXML(req, discardLogger())
	second, secondMap := buildClaimXML(req, discardLogger())

	require.Equal(t, first, second)
	require.Equal(t, firstMap, secondMap)
}

func TestBuildClaimXML_AggregatedDonation(t *testing.T) {
	t.Parallel()

	req := singleOrgRequest(t, Donation{
		AggregationDesc: "Bucket collection week 3",
		Amount:          amount("199.99"),
		Date:            date("2024-01-31"),
		ID:              "agg-1",
	})

	fragment, idMap := buildClaimXML(req, discardLogger())

	require.Contains(t, fragment, `<GAD><AggDonation>Bucket collection week 3</AggDonation><Date>2024-01-31</Date><Total>199.99</Total></GAD>`)
	require.NotContains(t, fragment, "<Donor>")
	require.Equal(t, DonationIDMap{1: {1: "agg-1"}}, idMap)
}

func TestBuildClaimXML_EmptyDonationList(t *testing.T) {
	t.Parallel()

	req := singleOrgRequest(t)

	fragment, idMap := buildClaimXML(req, discardLogger())

	require.Empty(t, fragment)
	require.Empty(t, idMap)
}

func TestBuildClaimXML_EscapesValues(t *testing.T) {
	t.Parallel()

	req, err := NewRequestBuilder().
		Charity(Charity{HMRCRef: "AB12345", Name: "Food & Shelter <Trust>"}).
		Official(AuthorisedOfficial{Forename: "Jo", Phone: "123", Postcode: "N1", Surname: "B"}).
		PeriodEnd(date("2024-04-05")).
		Donations(Donation{
			Amount:   amount("5.00"),
			Date:     date("2024-03-01"),
			Forename: "Seán",
			House:    `"The Larches"`,
			Postcode: "N1 7AA",
			Surname:  "O'Brien & Sons",
		}).
		Build()
	require.NoError(t, err)

	fragment, _ := buildClaimXML(req, discardLogger())

	require.Contains(t, fragment, "<OrgName>Food &amp; Shelter &lt;Trust&gt;</OrgName>")
	require.Contains(t, fragment, "<Sur>O&#39;Brien &amp; Sons</Sur>")
	require.NotContains(t, fragment, "<Trust>")
}

func agentRequest(t *testing.T, donations ...Donation) *ClaimRequest {
	t.Helper()

	req, err := NewRequestBuilder().
		Agent(AgentDetails{
			Address: AgentAddress{Lines: []string{"1 High Street"}},
			Company: "Claims R Us Ltd",
			Number:  "12345678901234",
		}).
		Charity(Charity{HMRCRef: "AA11111", Name: "Alpha Aid"}).
		Charity(Charity{HMRCRef: "BB22222", Name: "Beta Benevolent"}).
		PeriodEnd(date("2024-04-05")).
		Donations(donations...).
		Build()
	require.NoError(t, err)

	return req
}

func TestBuildClaimXML_AgentModeGroupsByOrganisation(t *testing.T) {
	t.Parallel()

	req := agentRequest(t,
		Donation{Amount: amount("10.00"), Date: date("2024-01-01"), Forename: "A", House: "1", ID: "a-1", OrgRef: "AA11111", Postcode: "N1", Surname: "One"},
		Donation{Amount: amount("20.00"), Date: date("2024-01-02"), Forename: "B", House: "2", ID: "a-2", OrgRef: "AA11111", Postcode: "N2", Surname: "Two"},
		Donation{Amount: amount("30.00"), Date: date("2024-01-03"), Forename: "C", House: "3", ID: "b-1", OrgRef: "BB22222", Postcode: "N3", Surname: "Three"},
		Donation{Amount: amount("40.00"), Date: date("2024-01-04"), Forename: "D", House: "4", ID: "a-3", OrgRef: "AA11111", Postcode: "N4", Surname: "Four"},
	)

	fragment, idMap := buildClaimXML(req, discardLogger())

	// A contiguous run per organisation becomes one claim; the same
	// organisation reappearing later opens a fresh claim with the next
	// ordinal.
	require.Equal(t, 3, strings.Count(fragment, "<Claim>"))
	require.Equal(t, 2, strings.Count(fragment, "<OrgName>Alpha Aid</OrgName>"))
	require.Equal(t, 1, strings.Count(fragment, "<OrgName>Beta Benevolent</OrgName>"))
	require.Equal(t, DonationIDMap{
		1: {1: "a-1", 2: "a-2"},
		2: {1: "b-1"},
		3: {1: "a-3"},
	}, idMap)
}

func TestBuildClaimXML_AgentModeOmitsRegulatorAndGASDS(t *testing.T) {
	t.Parallel()

	req := agentRequest(t,
		Donation{Amount: amount("10.00"), Date: date("2024-01-01"), Forename: "A", House: "1", OrgRef: "AA11111", Postcode: "N1", Surname: "One"},
	)

	fragment, _ := buildClaimXML(req, discardLogger())

	require.NotContains(t, fragment, "<Regulator>")
	require.NotContains(t, fragment, "<GASDS>")
}

func TestBuildClaimXML_SkipsUnresolvableDonations(t *testing.T) {
	t.Parallel()

	req := agentRequest(t,
		Donation{Amount: amount("10.00"), Date: date("2024-01-01"), Forename: "A", House: "1", ID: "a-1", OrgRef: "AA11111", Postcode: "N1", Surname: "One"},
		Donation{Amount: amount("20.00"), Date: date("2024-01-02"), Forename: "X", House: "2", ID: "x-1", OrgRef: "", Postcode: "N2", Surname: "NoOrg"},
		Donation{Amount: amount("30.00"), Date: date("2024-01-03"), Forename: "Y", House: "3", ID: "y-1", OrgRef: "ZZ99999", Postcode: "N3", Surname: "Unknown"},
	)

	fragment, idMap := buildClaimXML(req, discardLogger())

	require.Equal(t, 1, strings.Count(fragment, "<GAD>"))
	require.NotContains(t, fragment, "NoOrg")
	require.NotContains(t, fragment, "Unknown")
	require.Equal(t, DonationIDMap{1: {1: "a-1"}}, idMap)
}

func TestBuildClaimXML_DonationWithoutIDLeavesNoMapEntry(t *testing.T) {
	t.Parallel()

	req := singleOrgRequest(t,
		Donation{Amount: amount("10.00"), Date: date("2024-01-01"), Forename: "A", House: "1", Postcode: "N1", Surname: "One"},
		Donation{Amount: amount("20.00"), Date: date("2024-01-02"), Forename: "B", House: "2", ID: "d-2", Postcode: "N2", Surname: "Two"},
	)

	_, idMap := buildClaimXML(req, discardLogger())

	// The anonymous donation still consumes GAD ordinal 1.
	require.Equal(t, DonationIDMap{1: {2: "d-2"}}, idMap)
}

func TestBuildClaimXML_AdjustmentsAndOtherInfo(t *testing.T) {
	t.Parallel()

	req, err := NewRequestBuilder().
		Charity(Charity{HMRCRef: "AB12345", Name: "Hope Trust"}).
		Official(AuthorisedOfficial{Forename: "Jo", Phone: "123", Postcode: "N1", Surname: "B"}).
		PeriodEnd(date("2024-04-05")).
		GiftAidAdjustment(amount("12.34"), "Overclaim in prior period").
		GASDSAdjustment(amount("5.00"), "GASDS overclaim").
		GASDSYear("2024", amount("800.00")).
		Donations(Donation{
			Amount:   amount("10.00"),
			Date:     date("2024-01-01"),
			Forename: "A",
			House:    "1",
			Postcode: "N1",
			Surname:  "One",
		}).
		Build()
	require.NoError(t, err)

	fragment, _ := buildClaimXML(req, discardLogger())

	require.Contains(t, fragment, "<Adjustment>12.34</Adjustment></Repayment>")
	require.Contains(t, fragment, "<GASDSClaim><Year>2024</Year><Amount>800.00</Amount></GASDSClaim>")
	require.Contains(t, fragment, "<Adj>5.00</Adj>")
	require.Contains(t, fragment, "<OtherInfo>GASDS overclaim AND Overclaim in prior period</OtherInfo>")
}

func TestBuildClaimXML_GASDSConnectedCharitiesAndBuildings(t *testing.T) {
	t.Parallel()

	req, err := NewRequestBuilder().
		Charity(Charity{
			ConnectedCharities: []ConnectedCharity{
				{HMRCRef: "CC00001", Name: "Sister Charity"},
			},
			HMRCRef:                "AB12345",
			Name:                   "Hope Trust",
			UsesCommunityBuildings: true,
		}).
		Official(AuthorisedOfficial{Forename: "Jo", Phone: "123", Postcode: "N1", Surname: "B"}).
		PeriodEnd(date("2024-04-05")).
		CommunityBuilding(CommunityBuilding{
			Address: "2 Church Lane",
			Amount:  amount("400.00"),
			Name:    "Village Hall",
			Year:    "2024",
		}).
		Donations(Donation{
			Amount:   amount("10.00"),
			Date:     date("2024-01-01"),
			Forename: "A",
			House:    "1",
			Postcode: "N1",
			Surname:  "One",
		}).
		Build()
	require.NoError(t, err)

	fragment, _ := buildClaimXML(req, discardLogger())

	require.Contains(t, fragment, "<ConnectedCharities>yes</ConnectedCharities>")
	require.Contains(t, fragment, "<Charity><Name>Sister Charity</Name><HMRCref>CC00001</HMRCref></Charity>")
	require.Contains(t, fragment, "<CommBldgs>yes</CommBldgs>")
	require.Contains(t, fragment, "<Building><BldgName>Village Hall</BldgName><Address>2 Church Lane</Address><Year>2024</Year><Amount>400.00</Amount></Building>")
}
