package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
)

var heatmapHeader = []string{"rank", "key", "mean_risk", "category", "sample_size"}

// writeJSONHeatmap writes the chart, with empty slices rather than null when no group survived.
func writeJSONHeatmap(w io.Writer, chart schema.HeatmapChart) error {
	if chart.RowLabels == nil {
		chart.RowLabels = []string{}
	}
	if chart.Values == nil {
		chart.Values = [][]float64{}
	}
	if chart.SampleSizes == nil {
		chart.SampleSizes = []int{}
	}
	return writeJSON(w, chart)
}

// writeCSVHeatmap writes one record per retained group in table order.
func writeCSVHeatmap(w *csv.Writer, chart schema.HeatmapChart, fmtFloat func(float64) string) error {
	for i, key := range chart.RowLabels {
		mean := chart.Values[i][0]
		record := []string{
			strconv.Itoa(i + 1),
			key,
			fmtFloat(mean),
			contract.GetPlainLabel(mean),
			strconv.Itoa(chart.SampleSizes[i]),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
