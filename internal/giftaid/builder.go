package giftaid

import (
	"encoding/xml"
	"log/slog"
	"strings"
	"time"
)

// dateFormat is the gateway's date layout.
const dateFormat = "2006-01-02"

// xmlFragmentWriter assembles an XML fragment element by element. Values are
// escaped; element order is the caller's responsibility, which the R68 schema
// makes significant.
type xmlFragmentWriter struct {
	sb strings.Builder
}

// open writes a start tag.
func (w *xmlFragmentWriter) open(name string) {
	w.sb.WriteByte('<')
	w.sb.WriteString(name)
	w.sb.WriteByte('>')
}

// close writes an end tag.
func (w *xmlFragmentWriter) close(name string) {
	w.sb.WriteString("</")
	w.sb.WriteString(name)
	w.sb.WriteByte('>')
}

// element writes a complete element with an escaped text value.
func (w *xmlFragmentWriter) element(name string, value string) {
	w.open(name)
	_ = xml.EscapeText(&w.sb, []byte(value))
	w.close(name)
}

// elementIf writes the element only when the value is non-empty.
func (w *xmlFragmentWriter) elementIf(name string, value string) {
	if value != "" {
		w.element(name, value)
	}
}

// String returns the accumulated fragment.
func (w *xmlFragmentWriter) String() string {
	return w.sb.String()
}

// claimState is the loop-carried accumulator for the claim building fold:
// the currently open claim's organisation, its ordinals and its running
// earliest donation date.
type claimState struct {
	// claimOrdinal is the 1-indexed ordinal of the open claim, assigned in
	// first-seen organisation order.
	claimOrdinal int

	// earliest is the earliest donation date seen in the open claim.
	earliest time.Time

	// gadOrdinal is the 1-indexed ordinal of the last donation written to
	// the open claim.
	gadOrdinal int

	// open reports whether a claim block is currently open.
	open bool

	// orgRef is the HMRC reference of the open claim's organisation.
	orgRef string
}

// buildClaimXML partitions the request's donations into per-organisation
// claim blocks, serializes them to the R68 element structure, and records the
// reverse index from (claim ordinal, GAD ordinal) to caller donation ids.
//
// Donations that cannot be resolved to a configured organisation are skipped
// with a warning; they appear in neither the fragment nor the id map. An
// empty donation list yields an empty fragment and an empty id map.
func buildClaimXML(req *ClaimRequest, logger *slog.Logger) (string, DonationIDMap) {
	w := &xmlFragmentWriter{}
	idMap := make(DonationIDMap)
	state := claimState{}

	for _, d := range req.Donations() {
		ref := d.OrgRef
		if !req.AgentMode() {
			ref = req.soleCharity().HMRCRef
		}

		if ref == "" {
			logger.Warn("skipping donation without organisation reference",
				"donation_id", d.ID)
			continue
		}

		charity, ok := req.Charity(ref)
		if !ok {
			logger.Warn("skipping donation for unconfigured organisation",
				"donation_id", d.ID,
				"org_ref", ref)
			continue
		}

		if state.open && state.orgRef != ref {
			closeClaim(w, req, state)
			state = claimState{claimOrdinal: state.claimOrdinal}
		}

		if !state.open {
			state = claimState{
				claimOrdinal: state.claimOrdinal + 1,
				earliest:     d.Date,
				open:         true,
				orgRef:       ref,
			}
			openClaim(w, req, charity)
		}

		state.gadOrdinal++
		if d.ID != "" {
			if idMap[state.claimOrdinal] == nil {
				idMap[state.claimOrdinal] = make(map[int]string)
			}
			idMap[state.claimOrdinal][state.gadOrdinal] = d.ID
		}

		writeGAD(w, d)

		if d.Date.Before(state.earliest) {
			state.earliest = d.Date
		}
	}

	if state.open {
		closeClaim(w, req, state)
	}

	return w.String(), idMap
}

// openClaim writes the opening elements of a claim block: organisation name
// and reference, the regulator block in single-organisation mode, and the
// opening Repayment tag. The regulator block is omitted entirely in agent
// mode; the gateway rejects a regulator alongside an agent.
func openClaim(w *xmlFragmentWriter, req *ClaimRequest, charity Charity) {
	w.open("Claim")
	w.element("OrgName", charity.Name)
	w.element("HMRCref", charity.HMRCRef)

	if !req.AgentMode() {
		w.open("Regulator")
		if charity.Regulator == RegulatorNone {
			w.element("NoReg", "yes")
		} else {
			w.element("RegName", string(charity.Regulator))
			w.element("RegNo", charity.RegulatorNumber)
		}
		w.close("Regulator")
	}

	w.open("Repayment")
}

// writeGAD writes one donation entry. An aggregated donation carries only its
// description; any other donation carries the normalized donor block.
func writeGAD(w *xmlFragmentWriter, d Donation) {
	w.open("GAD")

	if d.AggregationDesc != "" {
		w.element("AggDonation", d.AggregationDesc)
	} else {
		donor := normalizeDonor(d)
		w.open("Donor")
		w.elementIf("Ttl", donor.Title)
		w.element("Fore", donor.Forename)
		w.element("Sur", donor.Surname)
		w.element("House", donor.House)
		if donor.Postcode != "" {
			w.element("Postcode", donor.Postcode)
		} else {
			w.element("Overseas", donor.Overseas)
		}
		w.close("Donor")
	}

	if d.Sponsored {
		w.element("Sponsored", "yes")
	}

	w.element("Date", d.Date.Format(dateFormat))
	w.element("Total", d.Amount.StringFixed(2))

	w.close("GAD")
}

// closeClaim writes the trailing aggregate elements of a claim block: the
// earliest donation date, gift aid adjustment, the small donations scheme
// sub-block in single-organisation mode, and the combined adjustment note.
func closeClaim(w *xmlFragmentWriter, req *ClaimRequest, state claimState) {
	w.element("EarliestGAdate", state.earliest.Format(dateFormat))
	if !req.gaAdjustment.IsZero() {
		w.element("Adjustment", req.gaAdjustment.StringFixed(2))
	}
	w.close("Repayment")

	if !req.AgentMode() {
		writeGASDS(w, req)
	}

	writeOtherInfo(w, req)
	w.close("Claim")
}

// writeGASDS writes the small donations scheme sub-block for the sole
// organisation of a single-organisation claim.
func writeGASDS(w *xmlFragmentWriter, req *ClaimRequest) {
	charity := req.soleCharity()

	w.open("GASDS")

	if len(charity.ConnectedCharities) > 0 {
		w.element("ConnectedCharities", "yes")
		for _, cc := range charity.ConnectedCharities {
			w.open("Charity")
			w.element("Name", cc.Name)
			w.element("HMRCref", cc.HMRCRef)
			w.close("Charity")
		}
	} else {
		w.element("ConnectedCharities", "no")
	}

	for _, year := range req.gasdsYears {
		w.open("GASDSClaim")
		w.element("Year", year.Year)
		w.element("Amount", year.Amount.StringFixed(2))
		w.close("GASDSClaim")
	}

	if charity.UsesCommunityBuildings && len(req.communityBuildings) > 0 {
		w.element("CommBldgs", "yes")
		for _, cb := range req.communityBuildings {
			w.open("Building")
			w.element("BldgName", cb.Name)
			w.element("Address", cb.Address)
			w.element("Year", cb.Year)
			w.element("Amount", cb.Amount.StringFixed(2))
			w.close("Building")
		}
	} else {
		w.element("CommBldgs", "no")
	}

	if !req.gasdsAdjustment.IsZero() {
		w.element("Adj", req.gasdsAdjustment.StringFixed(2))
	}

	w.close("GASDS")
}

// writeOtherInfo writes the combined free-text adjustment note: the small
// donations adjustment reason first, then the gift aid adjustment reason,
// joined with "AND". Nothing is written when both are empty.
func writeOtherInfo(w *xmlFragmentWriter, req *ClaimRequest) {
	var reasons []string
	if req.gasdsAdjustmentReason != "" {
		reasons = append(reasons, req.gasdsAdjustmentReason)
	}
	if req.gaAdjustmentReason != "" {
		reasons = append(reasons, req.gaAdjustmentReason)
	}

	if len(reasons) == 0 {
		return
	}

	w.element("OtherInfo", strings.Join(reasons, " AND "))
}
