package agg

import (
	"github.com/huangsam/riskboard/core/algo"
	"github.com/huangsam/riskboard/schema"
)

// GroupSpec configures a group risk aggregation.
type GroupSpec struct {
	Key        StringField                  // Column holding the group key
	Risk       FloatField                   // Column averaged per group
	MinSupport int                          // Groups need strictly more rows than this
	Keep       func(schema.DerivedRow) bool // Optional pre-filter applied before grouping
}

// GroupRisk computes mean risk and sample size per group key, drops groups at
// or below the minimum support, and orders the rest by mean risk descending.
// Rows with an empty group key are ignored. No surviving group yields an empty table.
func GroupRisk(rows []schema.DerivedRow, spec GroupSpec) schema.GroupRiskTable {
	groups := groupMeans(rows, spec)
	kept := algo.FilterMinSupport(groups, spec.MinSupport)
	algo.SortByMeanRisk(kept)
	return schema.GroupRiskTable{
		KeyField:   spec.Key.Name,
		MinSupport: spec.MinSupport,
		Rows:       kept,
	}
}

// groupMeans accumulates risk per key in first-seen order.
func groupMeans(rows []schema.DerivedRow, spec GroupSpec) []schema.GroupRiskRow {
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[string]*acc)
	var order []string
	for _, r := range rows {
		if spec.Keep != nil && !spec.Keep(r) {
			continue
		}
		key := spec.Key.Get(r)
		if key == "" {
			continue
		}
		a, ok := sums[key]
		if !ok {
			a = &acc{}
			sums[key] = a
			order = append(order, key)
		}
		a.sum += spec.Risk.Get(r)
		a.count++
	}

	groups := make([]schema.GroupRiskRow, 0, len(order))
	for _, key := range order {
		a := sums[key]
		groups = append(groups, schema.GroupRiskRow{
			Key:        key,
			MeanRisk:   a.sum / float64(a.count),
			SampleSize: a.count,
		})
	}
	return groups
}
