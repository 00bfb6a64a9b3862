package schema

import "time"

// TimeSeriesChart is what a sink receives for a stacked time-series dataset.
// Series[j] has one count per entry of X and is labelled Labels[j].
type TimeSeriesChart struct {
	Name   DatasetName `json:"name"`
	Title  string      `json:"title"`
	X      []time.Time `json:"x"`
	Labels []string    `json:"labels"`
	Series [][]int     `json:"series"`
}

// HeatmapChart is what a sink receives for a group risk dataset. Values has one
// row per entry of RowLabels and a single column, ValueLabel. SampleSizes is
// carried alongside for tabular sinks.
type HeatmapChart struct {
	Name        DatasetName `json:"name"`
	Title       string      `json:"title"`
	RowLabels   []string    `json:"row_labels"`
	ValueLabel  string      `json:"value_label"`
	Values      [][]float64 `json:"values"`
	SampleSizes []int       `json:"sample_sizes"`
}

// Datasets is the complete output of a pipeline run.
type Datasets struct {
	StateCounts CountMatrix    `json:"state_counts"`
	RiskCounts  CountMatrix    `json:"risk_counts"`
	RegionRisk  GroupRiskTable `json:"region_risk"`
	CountryRisk GroupRiskTable `json:"country_risk"`
}

// NewTimeSeriesChart converts a count matrix into the time-series hand-off shape.
func NewTimeSeriesChart(name DatasetName, m CountMatrix) TimeSeriesChart {
	series := make([][]int, len(m.Categories))
	for j, c := range m.Categories {
		series[j] = m.Column(c)
	}
	x := make([]time.Time, len(m.Dates))
	copy(x, m.Dates)
	labels := make([]string, len(m.Categories))
	copy(labels, m.Categories)
	return TimeSeriesChart{
		Name:   name,
		Title:  DatasetTitles[name],
		X:      x,
		Labels: labels,
		Series: series,
	}
}

// NewHeatmapChart converts a group risk table into the heatmap hand-off shape.
func NewHeatmapChart(name DatasetName, t GroupRiskTable) HeatmapChart {
	values := make([][]float64, len(t.Rows))
	sizes := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		values[i] = []float64{r.MeanRisk}
		sizes[i] = r.SampleSize
	}
	return HeatmapChart{
		Name:        name,
		Title:       DatasetTitles[name],
		RowLabels:   t.Keys(),
		ValueLabel:  "mean_risk",
		Values:      values,
		SampleSizes: sizes,
	}
}

// TimeSeriesCharts returns the two time-series hand-offs in dataset order.
func (d Datasets) TimeSeriesCharts() []TimeSeriesChart {
	return []TimeSeriesChart{
		NewTimeSeriesChart(StateCountsDataset, d.StateCounts),
		NewTimeSeriesChart(RiskCountsDataset, d.RiskCounts),
	}
}

// HeatmapCharts returns the two group hand-offs in dataset order.
func (d Datasets) HeatmapCharts() []HeatmapChart {
	return []HeatmapChart{
		NewHeatmapChart(RegionRiskDataset, d.RegionRisk),
		NewHeatmapChart(CountryRiskDataset, d.CountryRisk),
	}
}
