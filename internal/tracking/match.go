package tracking

import (
	"strings"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
)

// FindSubmission locates a submission by tracking id among records that
// may have come from heterogeneous sources. Matching is tiered:
//
//  1. exact string match
//  2. case-insensitive exact match
//  3. substring containment in either direction
//
// The first tier yielding exactly one candidate wins; an exact hit never
// falls through to the looser tiers, so a partial match cannot mask it.
// A tier with several candidates is ambiguous and never returns one of
// them arbitrarily. Returns nil when no tier resolves.
func FindSubmission(submissions []*models.Submission, trackingID string) *models.Submission {
	tiers := []func(stored, search string) bool{
		func(stored, search string) bool {
			return stored == search
		},
		func(stored, search string) bool {
			return strings.EqualFold(stored, search)
		},
		func(stored, search string) bool {
			return strings.Contains(stored, search) || strings.Contains(search, stored)
		},
	}

	for _, match := range tiers {
		var found *models.Submission
		count := 0
		for _, sub := range submissions {
			if sub != nil && match(sub.ID, trackingID) {
				found = sub
				count++
			}
		}
		if count == 1 {
			return found
		}
	}

	return nil
}
