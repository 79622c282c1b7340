package intel

import "github.com/mapard/mapard/internal/model"

// Dedupe removes findings whose identity was already seen, in a single
// first-seen-wins pass. Input order is preserved exactly: no reordering,
// no grouping. O(n) time, O(n) auxiliary space.
//
// Findings with an empty FindingID are dropped rather than passed through.
// The finding ID is the sole correctness contract downstream, and an
// unidentifiable record would silently bypass deduplication.
func Dedupe(findings []model.Finding) []model.Finding {
	seen := make(map[string]bool, len(findings))
	unique := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		if f.FindingID == "" || seen[f.FindingID] {
			continue
		}
		seen[f.FindingID] = true
		unique = append(unique, f)
	}
	return unique
}
