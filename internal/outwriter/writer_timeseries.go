package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
)

// jsonTimeSeries is the JSON artifact shape of a time-series chart.
type jsonTimeSeries struct {
	Name   schema.DatasetName `json:"name"`
	Title  string             `json:"title"`
	X      []string           `json:"x"`
	Labels []string           `json:"labels"`
	Series [][]int            `json:"series"`
}

// writeJSONTimeSeries writes the chart with dates formatted as calendar dates.
func writeJSONTimeSeries(w io.Writer, chart schema.TimeSeriesChart) error {
	x := make([]string, len(chart.X))
	for i, d := range chart.X {
		x[i] = d.Format(contract.DateFormat)
	}
	labels := chart.Labels
	if labels == nil {
		labels = []string{}
	}
	series := chart.Series
	if series == nil {
		series = [][]int{}
	}
	return writeJSON(w, jsonTimeSeries{
		Name:   chart.Name,
		Title:  chart.Title,
		X:      x,
		Labels: labels,
		Series: series,
	})
}

// timeSeriesHeader is the date column followed by one column per category.
func timeSeriesHeader(chart schema.TimeSeriesChart) []string {
	return append([]string{"date"}, chart.Labels...)
}

// writeCSVTimeSeries writes one record per date in wide format.
func writeCSVTimeSeries(w *csv.Writer, chart schema.TimeSeriesChart) error {
	for i, date := range chart.X {
		record := make([]string, 0, len(chart.Labels)+1)
		record = append(record, date.Format(contract.DateFormat))
		for j := range chart.Labels {
			record = append(record, strconv.Itoa(chart.Series[j][i]))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
