package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/dbexport"
	"github.com/huangsam/riskboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixtureConfig(t *testing.T) *contract.Config {
	t.Helper()
	return &contract.Config{
		InputPath:     filepath.Join("testdata", "accounts_basic.json"),
		OutputDir:     t.TempDir(),
		Outputs:       []schema.OutputMode{schema.TextOut},
		MinSupport:    schema.DefaultMinSupport,
		FocusCountry:  schema.DefaultFocusCountry,
		Precision:     contract.DefaultPrecision,
		Workers:       2,
		ExportBackend: schema.NoneBackend,
	}
}

func TestRunFixture(t *testing.T) {
	result, err := Run(context.Background(), fixtureConfig(t))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Summary.RunID)
	assert.Equal(t, 6, result.Summary.Accounts)
	assert.Equal(t, 10, result.Summary.Rows)
	assert.Len(t, result.Rows, 10)

	state := result.Datasets.StateCounts
	assert.Equal(t, []time.Time{day(1), day(2), day(3)}, state.Dates)
	assert.Equal(t, schema.StateOrder, state.Categories)
	assert.Equal(t, []int{1, 0, 2}, state.Column("unapproved"))
	assert.Equal(t, []int{1, 5, 1}, state.Column("approved"))

	risk := result.Datasets.RiskCounts
	assert.Equal(t, schema.RiskOrder, risk.Categories)
	assert.Equal(t, []int{1, 3, 0}, risk.Column("safe"))
	assert.Equal(t, []int{0, 2, 2}, risk.Column("suspicious"))
	assert.Equal(t, []int{1, 0, 1}, risk.Column("malicious"))

	region := result.Datasets.RegionRisk
	assert.Equal(t, []string{"Texas", "Ohio"}, region.Keys())
	assert.InDelta(t, 0.7, region.Rows[0].MeanRisk, 1e-9)
	assert.InDelta(t, 0.275, region.Rows[1].MeanRisk, 1e-9)
	assert.Equal(t, 4, region.Rows[1].SampleSize)

	country := result.Datasets.CountryRisk
	assert.Equal(t, []string{"United States"}, country.Keys())
	assert.InDelta(t, 0.4875, country.Rows[0].MeanRisk, 1e-9)
	assert.Equal(t, 8, country.Rows[0].SampleSize)

	assert.Equal(t, 2, result.Summary.RegionCount)
	assert.Equal(t, 1, result.Summary.CountryCount)
}

func TestRunStageErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		cfg := fixtureConfig(t)
		cfg.InputPath = filepath.Join(t.TempDir(), "absent.json")
		_, err := Run(context.Background(), cfg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrIO))
		assert.Contains(t, err.Error(), "load:")
	})

	t.Run("out of range risk", func(t *testing.T) {
		cfg := fixtureConfig(t)
		cfg.InputPath = filepath.Join(t.TempDir(), "bad.json")
		doc := `[{"id": "A", "risk": 1.5, "devices_count": 1,
			"devices": [{"created_at": "2021-03-01", "risk": 0.1, "state": "approved"}]}]`
		require.NoError(t, os.WriteFile(cfg.InputPath, []byte(doc), 0o644))
		_, err := Run(context.Background(), cfg)
		assert.True(t, errors.Is(err, schema.ErrCategoryOutOfRange))
		assert.Contains(t, err.Error(), "derive:")
	})

	t.Run("unknown device state", func(t *testing.T) {
		cfg := fixtureConfig(t)
		cfg.InputPath = filepath.Join(t.TempDir(), "state.json")
		doc := `[{"id": "A", "risk": 0.1, "devices_count": 1,
			"devices": [{"created_at": "2021-03-01", "risk": 0.1, "state": "pending"}]}]`
		require.NoError(t, os.WriteFile(cfg.InputPath, []byte(doc), 0o644))
		_, err := Run(context.Background(), cfg)
		assert.True(t, errors.Is(err, schema.ErrCategoryOutOfRange))
		assert.Contains(t, err.Error(), "aggregate:")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, fixtureConfig(t))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildDatasetsMinSupport(t *testing.T) {
	result, err := Run(context.Background(), fixtureConfig(t))
	require.NoError(t, err)

	datasets, err := BuildDatasets(context.Background(), result.Rows, DatasetOptions{
		MinSupport:   0,
		FocusCountry: schema.DefaultFocusCountry,
		Workers:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"UAE", "Canada", "United States"}, datasets.CountryRisk.Keys())
	assert.Equal(t, 0, datasets.CountryRisk.MinSupport)
	assert.Equal(t, result.Datasets.StateCounts, datasets.StateCounts)

	datasets, err = BuildDatasets(context.Background(), result.Rows, DatasetOptions{
		MinSupport:   10,
		FocusCountry: schema.DefaultFocusCountry,
	})
	require.NoError(t, err)
	assert.Empty(t, datasets.RegionRisk.Rows)
	assert.Empty(t, datasets.CountryRisk.Rows)
}

func TestBuildDatasetsEmptyInput(t *testing.T) {
	datasets, err := BuildDatasets(context.Background(), nil, DatasetOptions{FocusCountry: schema.DefaultFocusCountry})
	require.NoError(t, err)
	assert.Empty(t, datasets.StateCounts.Dates)
	assert.Equal(t, schema.StateOrder, datasets.StateCounts.Categories)
	assert.Empty(t, datasets.RiskCounts.Dates)
	assert.Empty(t, datasets.RegionRisk.Rows)
	assert.Empty(t, datasets.CountryRisk.Rows)
}

func TestExecuteBuildArtifacts(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Outputs = []schema.OutputMode{schema.TextOut, schema.CSVOut, schema.JSONOut, schema.ParquetOut}

	var buf bytes.Buffer
	result, err := ExecuteBuild(context.Background(), cfg, &buf)
	require.NoError(t, err)
	require.NotNil(t, result)

	for _, name := range schema.AllDatasets {
		for _, ext := range []string{"csv", "json", "parquet"} {
			assert.FileExists(t, filepath.Join(cfg.OutputDir, string(name)+"."+ext))
		}
	}
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "devices.parquet"))

	out := buf.String()
	assert.Contains(t, out, schema.DatasetTitles[schema.StateCountsDataset])
	assert.Contains(t, out, "Texas")
	assert.Contains(t, out, "Run "+result.Summary.RunID+" completed")
}

func TestRunIdempotent(t *testing.T) {
	cfg := fixtureConfig(t)
	first, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first.Summary.RunID, second.Summary.RunID)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Datasets, second.Datasets)
}

func TestExecuteBuildDeterministicArtifacts(t *testing.T) {
	build := func() (string, map[string][]byte) {
		cfg := fixtureConfig(t)
		cfg.Outputs = []schema.OutputMode{schema.TextOut, schema.CSVOut, schema.JSONOut}
		var buf bytes.Buffer
		_, err := ExecuteBuild(WithSuppressHeader(context.Background()), cfg, &buf)
		require.NoError(t, err)

		files := make(map[string][]byte)
		for _, name := range schema.AllDatasets {
			for _, ext := range []string{"csv", "json"} {
				data, err := os.ReadFile(contract.ArtifactPath(cfg.OutputDir, name, ext))
				require.NoError(t, err)
				files[string(name)+"."+ext] = data
			}
		}
		return buf.String(), files
	}

	firstText, firstFiles := build()
	secondText, secondFiles := build()
	assert.Equal(t, firstText, secondText)
	require.Len(t, firstFiles, 2*len(schema.AllDatasets))
	for name, data := range firstFiles {
		assert.Equal(t, string(data), string(secondFiles[name]), name)
	}
}

func TestExecuteBuildSuppressHeader(t *testing.T) {
	var buf bytes.Buffer
	result, err := ExecuteBuild(WithSuppressHeader(context.Background()), fixtureConfig(t), &buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Run "+result.Summary.RunID)
}

func TestExecuteBuildSQLiteExport(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Outputs = []schema.OutputMode{schema.JSONOut}
	cfg.ExportBackend = schema.SQLiteBackend
	cfg.ExportDBConnect = filepath.Join(t.TempDir(), "export.db")

	result, err := ExecuteBuild(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	store, err := dbexport.NewStore(context.Background(), schema.SQLiteBackend, cfg.ExportDBConnect)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, result.Summary.RunID, status.LastRunID)
	assert.Equal(t, int64(1), status.TableSizes["riskboard_runs"])
	assert.Equal(t, int64(15), status.TableSizes["riskboard_daily_counts"])
	assert.Equal(t, int64(3), status.TableSizes["riskboard_group_risk"])
}

func TestExportWith(t *testing.T) {
	result, err := Run(context.Background(), fixtureConfig(t))
	require.NoError(t, err)

	store := &contract.MockExportStore{}
	store.On("WriteRun", mock.Anything, result.Summary, result.Datasets).Return(errors.New("boom")).Once()

	err = ExportWith(context.Background(), store, result)
	assert.EqualError(t, err, "boom")
	store.AssertExpectations(t)
}

func TestShouldSuppressHeader(t *testing.T) {
	assert.False(t, shouldSuppressHeader(context.Background()))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(context.Background())))
	ctx := context.WithValue(context.Background(), suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(ctx))
}
