// Package harvest runs one incremental harvest: list a season, drop ids the
// store already has, fetch the rest one at a time with pacing, normalize and
// append.
package harvest

import "animeharvest/pkg/models"

// Dedup drops candidates whose id is already stored, keeping the order of
// the survivors. A nil or empty set keeps everything.
func Dedup(candidates []models.Candidate, existing map[int]struct{}) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
