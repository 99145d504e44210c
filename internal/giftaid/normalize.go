package giftaid

const (
	// maxNameLength is the schema limit for forename and surname.
	maxNameLength = 35

	// maxHouseLength is the schema limit for the house identifier.
	maxHouseLength = 40
)

// normalizedDonor holds a donor's fields after truncation to schema limits.
type normalizedDonor struct {
	// Forename is the donor's first name, at most 35 characters.
	Forename string

	// House is the house name or number, at most 40 characters.
	House string

	// Overseas is the schema overseas indicator, "yes" or "no".
	Overseas string

	// Postcode is the donor's postcode, empty for overseas donors.
	Postcode string

	// Surname is the donor's last name, at most 35 characters.
	Surname string

	// Title is the donor's title, unmodified.
	Title string
}

// normalizeDonor truncates a donation's person fields to the gateway schema
// limits and derives the overseas indicator. Truncation is silent and lossy;
// it happens here, at serialization time, so that the caller's original
// identifiers remain intact for id mapping and diagnostics. A missing
// postcode forces the overseas indicator regardless of the flag.
func normalizeDonor(d Donation) normalizedDonor {
	overseas := "no"
	if d.Overseas || d.Postcode == "" {
		overseas = "yes"
	}

	return normalizedDonor{
		Forename: truncate(d.Forename, maxNameLength),
		House:    truncate(d.House, maxHouseLength),
		Overseas: overseas,
		Postcode: d.Postcode,
		Surname:  truncate(d.Surname, maxNameLength),
		Title:    d.Title,
	}
}

// truncate returns s cut to at most limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
