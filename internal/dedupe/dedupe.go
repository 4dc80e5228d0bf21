// Package dedupe narrows a detection batch to one representative record per
// key before graph compilation or LLM summarization.
package dedupe

import "visiongraph/pkg/models"

// ByKey keeps the first record seen per distinct key value, preserving input
// order, then truncates to limit records (limit <= 0 means no limit). The
// input is never mutated.
//
// When field is empty the key falls back through processName then
// processFilePath. Records whose resolved key is empty all share the empty
// key: only the first keyless record survives. The operation is idempotent.
func ByKey(dets []*models.Detection, field string, limit int) []*models.Detection {
	out := make([]*models.Detection, 0, len(dets))
	seen := make(map[string]struct{}, len(dets))

	for _, d := range dets {
		if d == nil {
			continue
		}
		key := keyFor(d, field)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}

func keyFor(d *models.Detection, field string) string {
	if field != "" {
		return d.Field(field)
	}
	return d.First("processName", "processFilePath")
}
