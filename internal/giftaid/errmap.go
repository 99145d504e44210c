package giftaid

import (
	"regexp"
	"strconv"

	"github.com/thebiggive/hmrc-gift-aid/internal/govtalk"
)

// genericBusinessErrorCode is the gateway's umbrella "departmental business
// logic failed" code. It carries no detail of its own; its presence signals
// that the specific errors live in the low-level error collection.
const genericBusinessErrorCode = "3001"

// gadLocationPattern extracts the claim ordinal and GAD ordinal from a
// schema-validation error location path. Gateway locations always carry
// explicit 1-indexed ordinals on both elements.
var gadLocationPattern = regexp.MustCompile(`Claim\[(\d+)\].*GAD\[(\d+)\]`)

// mapErrors translates a failed gateway response into categorised error
// entries and the distinct list of donation ids implicated by business
// errors.
//
// The umbrella business code is removed first: it duplicates the specific
// errors. Only when that removal leaves every category empty does the mapper
// fall back to parsing the low-level error collection from the raw response
// body. The two sources are never merged; merging would change observable
// error counts.
func mapErrors(resp *govtalk.Response, idMap DonationIDMap) (ErrorSet, []string) {
	var set ErrorSet

	for _, e := range resp.Errors {
		entry := ErrorEntry{
			Code:     e.Number,
			Location: e.Location,
			Text:     e.Text,
		}

		switch e.Type {
		case govtalk.ErrorTypeBusiness:
			if e.Number == genericBusinessErrorCode {
				continue
			}
			entry.DonationID = resolveDonationID(e.Location, idMap)
			set.Business = append(set.Business, entry)
		case govtalk.ErrorTypeFatal:
			set.Fatal = append(set.Fatal, entry)
		case govtalk.ErrorTypeRecoverable:
			set.Recoverable = append(set.Recoverable, entry)
		default:
			set.Warning = append(set.Warning, entry)
		}
	}

	if set.Empty() {
		for _, e := range govtalk.ParseErrorResponse(resp.Body) {
			set.Business = append(set.Business, ErrorEntry{
				Code:       e.Number,
				DonationID: resolveDonationID(e.Location, idMap),
				Location:   e.Location,
				Text:       e.Text,
			})
		}
	}

	return set, donationIDsWithErrors(set, idMap)
}

// resolveDonationID maps an error location back to the caller-supplied
// donation identifier through the reverse index built during serialization.
// Returns empty when the location does not carry claim and GAD ordinals or
// the pair was never recorded.
func resolveDonationID(location string, idMap DonationIDMap) string {
	if len(idMap) == 0 {
		return ""
	}

	m := gadLocationPattern.FindStringSubmatch(location)
	if m == nil {
		return ""
	}

	claim, _ := strconv.Atoi(m[1])
	gad, _ := strconv.Atoi(m[2])

	return idMap[claim][gad]
}

// donationIDsWithErrors returns the distinct donation ids across all
// business errors, in order of first appearance. An empty id map always
// yields an empty list, whatever the errors reference.
func donationIDsWithErrors(set ErrorSet, idMap DonationIDMap) []string {
	if len(idMap) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(set.Business))
	var ids []string

	for _, e := range set.Business {
		if e.DonationID == "" || seen[e.DonationID] {
			continue
		}
		seen[e.DonationID] = true
		ids = append(ids, e.DonationID)
	}

	return ids
}
