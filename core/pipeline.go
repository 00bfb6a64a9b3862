package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/riskboard/core/agg"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/logging"
	"github.com/huangsam/riskboard/internal/metrics"
	"github.com/huangsam/riskboard/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("riskboard.core")

// Result is everything a pipeline run produces.
type Result struct {
	Summary  schema.RunSummary
	Rows     []schema.DerivedRow
	Datasets schema.Datasets
}

// DatasetOptions controls how derived rows are aggregated into datasets.
type DatasetOptions struct {
	MinSupport   int
	FocusCountry string
	Workers      int
}

// OptionsFromConfig extracts the aggregation options of a config.
func OptionsFromConfig(cfg *contract.Config) DatasetOptions {
	return DatasetOptions{
		MinSupport:   cfg.MinSupport,
		FocusCountry: cfg.FocusCountry,
		Workers:      cfg.Workers,
	}
}

// Run loads the input file, flattens and derives its rows, and builds all four datasets.
// Any stage error aborts the run.
func Run(ctx context.Context, cfg *contract.Config) (result *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logging.Get().With(zap.String("run_id", runID))

	ctx, span := tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.String("run_id", runID), attribute.String("input", cfg.InputPath)))
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		metrics.RunsTotal.WithLabelValues(status).Inc()
		span.End()
	}()

	log.Info("starting run", zap.String("input", cfg.InputPath))

	var accounts []schema.AccountRecord
	if err := stage(ctx, "load", func(context.Context) (err error) {
		accounts, err = LoadAccounts(cfg.InputPath)
		return err
	}); err != nil {
		return nil, err
	}
	metrics.AccountsLoaded.Set(float64(len(accounts)))

	var flat []schema.FlatRow
	if err := stage(ctx, "flatten", func(context.Context) (err error) {
		flat, err = FlattenAccounts(accounts)
		return err
	}); err != nil {
		return nil, err
	}
	metrics.RowsFlattened.Set(float64(len(flat)))

	var rows []schema.DerivedRow
	if err := stage(ctx, "derive", func(context.Context) (err error) {
		rows, err = DeriveRows(flat)
		return err
	}); err != nil {
		return nil, err
	}

	var datasets schema.Datasets
	if err := stage(ctx, "aggregate", func(ctx context.Context) (err error) {
		datasets, err = BuildDatasets(ctx, rows, OptionsFromConfig(cfg))
		return err
	}); err != nil {
		return nil, err
	}
	metrics.GroupsRetained.WithLabelValues(string(schema.RegionRiskDataset)).Set(float64(len(datasets.RegionRisk.Rows)))
	metrics.GroupsRetained.WithLabelValues(string(schema.CountryRiskDataset)).Set(float64(len(datasets.CountryRisk.Rows)))

	summary := schema.RunSummary{
		RunID:        runID,
		InputPath:    cfg.InputPath,
		Accounts:     len(accounts),
		Rows:         len(rows),
		StartedAt:    start,
		Duration:     time.Since(start),
		RegionCount:  len(datasets.RegionRisk.Rows),
		CountryCount: len(datasets.CountryRisk.Rows),
	}
	log.Info("run complete",
		zap.Int("accounts", summary.Accounts),
		zap.Int("rows", summary.Rows),
		zap.Int("regions", summary.RegionCount),
		zap.Int("countries", summary.CountryCount),
		zap.Duration("duration", summary.Duration))

	return &Result{Summary: summary, Rows: rows, Datasets: datasets}, nil
}

// BuildDatasets runs the four aggregations concurrently over the same derived rows.
// Each aggregation only reads rows, so they share the slice. It records no metrics.
func BuildDatasets(ctx context.Context, rows []schema.DerivedRow, opts DatasetOptions) (schema.Datasets, error) {
	var out schema.Datasets
	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	g.Go(func() error {
		return traced(ctx, string(schema.StateCountsDataset), func() (err error) {
			out.StateCounts, err = agg.CountByDate(rows, agg.CreatedDateField, agg.DeviceStateField, schema.StateOrder)
			return err
		})
	})
	g.Go(func() error {
		return traced(ctx, string(schema.RiskCountsDataset), func() (err error) {
			out.RiskCounts, err = agg.CountByDate(rows, agg.CreatedDateField, agg.RiskCategoryField, schema.RiskOrder)
			return err
		})
	})
	g.Go(func() error {
		return traced(ctx, string(schema.RegionRiskDataset), func() error {
			out.RegionRisk = RegionRiskTable(rows, opts)
			return nil
		})
	})
	g.Go(func() error {
		return traced(ctx, string(schema.CountryRiskDataset), func() error {
			out.CountryRisk = CountryRiskTable(rows, opts)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return schema.Datasets{}, err
	}
	return out, nil
}

// RegionRiskTable groups the rows of the focus country by region.
func RegionRiskTable(rows []schema.DerivedRow, opts DatasetOptions) schema.GroupRiskTable {
	return agg.GroupRisk(rows, agg.GroupSpec{
		Key:        agg.RegionField,
		Risk:       agg.AccountRiskField,
		MinSupport: opts.MinSupport,
		Keep:       agg.InCountry(opts.FocusCountry),
	})
}

// CountryRiskTable groups all rows by country.
func CountryRiskTable(rows []schema.DerivedRow, opts DatasetOptions) schema.GroupRiskTable {
	return agg.GroupRisk(rows, agg.GroupSpec{
		Key:        agg.CountryField,
		Risk:       agg.AccountRiskField,
		MinSupport: opts.MinSupport,
	})
}

// stage runs one pipeline step inside a span and records its duration.
func stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer metrics.ObserveStage(name, time.Now())
	ctx, span := tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Get().Error("stage failed", zap.String("stage", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// traced runs one aggregation inside a child span.
func traced(ctx context.Context, dataset string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, span := tracer.Start(ctx, "aggregate."+dataset)
	defer span.End()
	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
