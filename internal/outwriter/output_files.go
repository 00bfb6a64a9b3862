package outwriter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
)

// FileSink writes every chart as <dir>/<name>.<format> in CSV or JSON.
type FileSink struct {
	dir      string
	format   schema.OutputMode
	fmtFloat func(float64) string
}

var _ contract.ChartSink = &FileSink{} // Compile-time check

// NewFileSink creates a CSV or JSON sink rooted at dir.
func NewFileSink(dir string, format schema.OutputMode, precision int) *FileSink {
	fmtFloat, _ := createFormatters(precision)
	return &FileSink{dir: dir, format: format, fmtFloat: fmtFloat}
}

// RenderTimeSeries implements the contract.ChartSink interface.
func (s *FileSink) RenderTimeSeries(_ context.Context, chart schema.TimeSeriesChart) error {
	path := contract.ArtifactPath(s.dir, chart.Name, string(s.format))
	switch s.format {
	case schema.JSONOut:
		return writeWithFile(path, func(w io.Writer) error {
			return writeJSONTimeSeries(w, chart)
		}, "Wrote JSON time series")
	case schema.CSVOut:
		return writeWithFile(path, func(w io.Writer) error {
			return writeCSVWithHeader(w, timeSeriesHeader(chart), func(cw *csv.Writer) error {
				return writeCSVTimeSeries(cw, chart)
			})
		}, "Wrote CSV time series")
	default:
		return fmt.Errorf("unsupported file format '%s'", s.format)
	}
}

// RenderHeatmap implements the contract.ChartSink interface.
func (s *FileSink) RenderHeatmap(_ context.Context, chart schema.HeatmapChart) error {
	path := contract.ArtifactPath(s.dir, chart.Name, string(s.format))
	switch s.format {
	case schema.JSONOut:
		return writeWithFile(path, func(w io.Writer) error {
			return writeJSONHeatmap(w, chart)
		}, "Wrote JSON group risk")
	case schema.CSVOut:
		return writeWithFile(path, func(w io.Writer) error {
			return writeCSVWithHeader(w, heatmapHeader, func(cw *csv.Writer) error {
				return writeCSVHeatmap(cw, chart, s.fmtFloat)
			})
		}, "Wrote CSV group risk")
	default:
		return fmt.Errorf("unsupported file format '%s'", s.format)
	}
}
