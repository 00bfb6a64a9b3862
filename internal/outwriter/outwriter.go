// Package outwriter has output and writer logic.
package outwriter

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/parquet"
	"github.com/huangsam/riskboard/schema"
)

// NewSinks creates one chart sink per configured output format.
// Text output goes to w; every other format writes files under cfg.OutputDir.
func NewSinks(cfg *contract.Config, w io.Writer) ([]contract.ChartSink, error) {
	var sinks []contract.ChartSink
	for _, mode := range cfg.Outputs {
		switch mode {
		case schema.TextOut:
			sinks = append(sinks, NewTableSink(w, cfg))
		case schema.CSVOut, schema.JSONOut:
			sinks = append(sinks, NewFileSink(cfg.OutputDir, mode, cfg.Precision))
		case schema.ParquetOut:
			sinks = append(sinks, parquet.NewSink(cfg.OutputDir))
		default:
			return nil, fmt.Errorf("unsupported output format '%s'", mode)
		}
	}
	return sinks, nil
}

// Publish hands every dataset to every sink: the two time series first, then
// the two group tables. The first sink error stops publishing.
func Publish(ctx context.Context, datasets schema.Datasets, sinks []contract.ChartSink) error {
	timeSeries := datasets.TimeSeriesCharts()
	heatmaps := datasets.HeatmapCharts()
	for _, sink := range sinks {
		for _, chart := range timeSeries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.RenderTimeSeries(ctx, chart); err != nil {
				return fmt.Errorf("error writing %s: %w", chart.Name, err)
			}
		}
		for _, chart := range heatmaps {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.RenderHeatmap(ctx, chart); err != nil {
				return fmt.Errorf("error writing %s: %w", chart.Name, err)
			}
		}
	}
	return nil
}
