package schema

// GroupRiskRow is the mean risk and sample size of one geographic group.
type GroupRiskRow struct {
	Key        string  `json:"key"`
	MeanRisk   float64 `json:"mean_risk"`
	SampleSize int     `json:"sample_size"`
}

// GroupRiskTable holds the groups that passed the minimum support filter,
// ordered by mean risk descending.
type GroupRiskTable struct {
	KeyField   string         `json:"key_field"`
	MinSupport int            `json:"min_support"`
	Rows       []GroupRiskRow `json:"rows"`
}

// Keys returns the group keys in table order.
func (t GroupRiskTable) Keys() []string {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
	}
	return keys
}
