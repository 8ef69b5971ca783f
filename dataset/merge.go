package dataset

import "homesweep/models"

// Merge appends incoming after existing and drops every row whose address
// reappears later in that sequence. The survivor for each address is its last
// occurrence, so an incoming record always replaces a stored one regardless
// of ScrapedAt. Survivors keep their relative order.
func Merge(existing, incoming []models.Listing) []models.Listing {
	combined := make([]models.Listing, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)

	last := make(map[string]int, len(combined))
	for i, l := range combined {
		last[l.Key()] = i
	}

	merged := make([]models.Listing, 0, len(last))
	for i, l := range combined {
		if last[l.Key()] == i {
			merged = append(merged, l)
		}
	}
	return merged
}

type MergeStats struct {
	Existing int
	Incoming int
	Total    int
}

// Replaced is the number of rows dropped as older duplicates.
func (s MergeStats) Replaced() int {
	return s.Existing + s.Incoming - s.Total
}
