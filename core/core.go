// Package core has core logic for loading, flattening, deriving and aggregating
// account exports into the dashboard datasets.
package core

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/dbexport"
	"github.com/huangsam/riskboard/internal/outwriter"
	"github.com/huangsam/riskboard/internal/parquet"
	"github.com/huangsam/riskboard/schema"
)

// ExecuteBuild runs the pipeline once and hands its datasets to every configured
// sink. Parquet output also gets the device rows, and a configured SQL backend
// receives the run last.
func ExecuteBuild(ctx context.Context, cfg *contract.Config, w io.Writer) (*Result, error) {
	result, err := Run(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sinks, err := outwriter.NewSinks(cfg, w)
	if err != nil {
		return nil, err
	}
	if err := stage(ctx, "publish", func(ctx context.Context) error {
		return outwriter.Publish(ctx, result.Datasets, sinks)
	}); err != nil {
		return nil, err
	}

	if cfg.HasOutput(schema.ParquetOut) {
		if _, err := parquet.WriteDeviceRowsParquet(result.Rows, cfg.OutputDir); err != nil {
			return nil, fmt.Errorf("error writing device rows: %w", err)
		}
	}

	if cfg.ExportBackend != schema.NoneBackend {
		if err := stage(ctx, "export", func(ctx context.Context) error {
			return exportRun(ctx, cfg, result)
		}); err != nil {
			return nil, err
		}
	}

	if !shouldSuppressHeader(ctx) && cfg.HasOutput(schema.TextOut) {
		_, _ = fmt.Fprintf(w, "Run %s completed in %v with %d workers: %d accounts, %d device rows\n",
			result.Summary.RunID, result.Summary.Duration, cfg.Workers, result.Summary.Accounts, result.Summary.Rows)
	}
	return result, nil
}

// exportRun writes the run to the configured SQL backend.
func exportRun(ctx context.Context, cfg *contract.Config, result *Result) error {
	store, err := dbexport.NewStore(ctx, cfg.ExportBackend, cfg.ExportDBConnect)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return ExportWith(ctx, store, result)
}

// ExportWith writes a run through an already open export store.
func ExportWith(ctx context.Context, store contract.ExportStore, result *Result) error {
	return store.WriteRun(ctx, result.Summary, result.Datasets)
}
