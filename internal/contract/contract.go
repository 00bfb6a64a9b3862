// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/riskboard/schema"
)

// ChartSink receives the datasets of a run in presentation-ready form.
// Implementations own every rendering, layout and file output concern.
type ChartSink interface {
	// RenderTimeSeries receives a stacked series: ordered dates and one
	// same-length count series per category label.
	RenderTimeSeries(ctx context.Context, chart schema.TimeSeriesChart) error

	// RenderHeatmap receives row labels in table order and a single value column.
	// The chart may have no rows.
	RenderHeatmap(ctx context.Context, chart schema.HeatmapChart) error
}

// ExportStore writes the datasets of a run to an external database.
type ExportStore interface {
	// WriteRun replaces the previously exported datasets with those of this run.
	WriteRun(ctx context.Context, summary schema.RunSummary, datasets schema.Datasets) error

	// GetStatus returns status information about the export target.
	GetStatus(ctx context.Context) (schema.ExportStatus, error)

	// Close closes the underlying connection.
	Close() error
}
