// Package algo has the small, pure ranking steps shared by the aggregations.
package algo

import (
	"sort"

	"github.com/huangsam/riskboard/schema"
)

// FilterMinSupport keeps groups whose sample size is strictly greater than
// minSupport. The input slice is not modified.
func FilterMinSupport(groups []schema.GroupRiskRow, minSupport int) []schema.GroupRiskRow {
	kept := make([]schema.GroupRiskRow, 0, len(groups))
	for _, g := range groups {
		if g.SampleSize > minSupport {
			kept = append(kept, g)
		}
	}
	return kept
}

// SortByMeanRisk sorts groups by mean risk in descending order.
// Equal means are ordered by key so the result does not depend on input order.
func SortByMeanRisk(groups []schema.GroupRiskRow) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].MeanRisk != groups[j].MeanRisk {
			return groups[i].MeanRisk > groups[j].MeanRisk
		}
		return groups[i].Key < groups[j].Key
	})
}
