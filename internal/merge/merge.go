// Package merge reconciles freshly extracted candidate records against the
// previously known record set.
package merge

import (
	"go.uber.org/zap"

	"github.com/sells-group/moverscan/internal/model"
)

// Reconcile applies upsert-by-name semantics: candidates whose name is
// absent from existing are appended in batch order; candidates whose name
// is present fully replace the existing record in place, preserving its
// position. Matching is case-sensitive exact equality with no
// normalization. Within a batch the last candidate for a name wins.
//
// The input slices are not mutated; the returned slice is freshly
// allocated. Candidates with an empty name are dropped.
func Reconcile(existing []model.CompanyRecord, incoming model.CandidateBatch) []model.CompanyRecord {
	out := make([]model.CompanyRecord, len(existing))
	copy(out, existing)

	// First occurrence wins for exact duplicates already in existing.
	index := make(map[string]int, len(out))
	for i, r := range out {
		if _, ok := index[r.Name]; !ok {
			index[r.Name] = i
		}
	}

	inserted, updated := 0, 0
	for _, cand := range incoming {
		if cand.Name == "" {
			continue
		}
		if i, ok := index[cand.Name]; ok {
			// Full overwrite, not field-level merge. Keep the freshest
			// timestamp so last_updated never moves backwards.
			if cand.LastUpdated.Before(out[i].LastUpdated) {
				cand.LastUpdated = out[i].LastUpdated
			}
			out[i] = cand
			updated++
			continue
		}
		index[cand.Name] = len(out)
		out = append(out, cand)
		inserted++
	}

	zap.L().Debug("merge: reconciled batch",
		zap.Int("existing", len(existing)),
		zap.Int("incoming", len(incoming)),
		zap.Int("inserted", inserted),
		zap.Int("updated", updated),
	)
	return out
}
