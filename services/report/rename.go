package report

import (
	"github.com/antzucaro/matchr"

	"hkexwatch/services/diff"
)

// a JaroWinkler score above this is close enough to flag two holder
// names as probably the same person spelled differently
const renameThreshold = 0.92

type renameHint struct {
	Removed    string
	Added      string
	Similarity float64
}

// renameHints pairs removed holder names with similar added holder
// names. The full-row matching of the main table reports a rename as
// removed+added, this gives the reader a nudge without changing the
// change set itself.
func renameHints(cs diff.ChangeSet, holderField string) []renameHint {
	if holderField == "" {
		return nil
	}

	addedNames := holderNames(cs, holderField, true)
	removedNames := holderNames(cs, holderField, false)

	var hints []renameHint
	matched := map[string]struct{}{}
	for _, removed := range removedNames {
		var best string
		var bestScore float64
		for _, added := range addedNames {
			if removed == added {
				// same holder with a changed row, not a rename
				continue
			}
			if _, taken := matched[added]; taken {
				continue
			}
			score := matchr.JaroWinkler(removed, added, false)
			if score > bestScore {
				bestScore = score
				best = added
			}
		}
		if bestScore >= renameThreshold {
			matched[best] = struct{}{}
			hints = append(hints, renameHint{
				Removed:    removed,
				Added:      best,
				Similarity: bestScore,
			})
		}
	}
	return hints
}

func holderNames(cs diff.ChangeSet, holderField string, added bool) []string {
	records := cs.Removed
	if added {
		records = cs.Added
	}

	var names []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		name, ok := rec.Get(holderField)
		if !ok || name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
