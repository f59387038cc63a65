package snapshot

import "finpal/internal/core"

// ChallengeView is a catalog entry with the per-user completed flag.
type ChallengeView struct {
	core.Challenge
	Completed bool `json:"completed"`
}

// ResolveChallenges merges the catalog with the set of completed challenge
// ids and partitions the result into daily and weekly lists. An empty
// catalog is replaced by the fallback catalog so the result is never empty;
// entries with an unknown type are dropped. Catalog order is preserved
// within each partition.
func ResolveChallenges(catalog []core.Challenge, completedIDs map[string]bool, fallback []core.Challenge) (daily, weekly []ChallengeView) {
	if len(catalog) == 0 {
		catalog = fallback
	}

	daily = []ChallengeView{}
	weekly = []ChallengeView{}
	for _, c := range catalog {
		view := ChallengeView{Challenge: c, Completed: completedIDs[c.ID]}
		switch c.Type {
		case core.Daily:
			daily = append(daily, view)
		case core.Weekly:
			weekly = append(weekly, view)
		}
	}
	return daily, weekly
}
