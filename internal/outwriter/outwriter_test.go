package outwriter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/parquet"
	"github.com/huangsam/riskboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)
)

func sampleDatasets() schema.Datasets {
	return schema.Datasets{
		StateCounts: schema.CountMatrix{
			Dates:      []time.Time{day1, day2},
			Categories: schema.StateOrder,
			Counts:     [][]int{{1, 1}, {0, 2}},
		},
		RiskCounts: schema.CountMatrix{
			Dates:      []time.Time{day1, day2},
			Categories: schema.RiskOrder,
			Counts:     [][]int{{1, 0, 1}, {2, 0, 0}},
		},
		RegionRisk: schema.GroupRiskTable{KeyField: "region", MinSupport: 3},
		CountryRisk: schema.GroupRiskTable{
			KeyField:   "country",
			MinSupport: 3,
			Rows: []schema.GroupRiskRow{
				{Key: "UAE", MeanRisk: 0.95, SampleSize: 4},
				{Key: "Canada", MeanRisk: 0.25, SampleSize: 5},
			},
		},
	}
}

func TestNewSinks(t *testing.T) {
	cfg := &contract.Config{
		OutputDir: t.TempDir(),
		Outputs:   []schema.OutputMode{schema.TextOut, schema.CSVOut, schema.JSONOut, schema.ParquetOut},
		Precision: 3,
	}
	sinks, err := NewSinks(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, sinks, 4)
	assert.IsType(t, &TableSink{}, sinks[0])
	assert.IsType(t, &FileSink{}, sinks[1])
	assert.IsType(t, &FileSink{}, sinks[2])
	assert.IsType(t, &parquet.Sink{}, sinks[3])

	cfg.Outputs = []schema.OutputMode{"xml"}
	_, err = NewSinks(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPublishOrder(t *testing.T) {
	ctx := context.Background()
	sink := new(contract.MockChartSink)
	var order []schema.DatasetName
	sink.On("RenderTimeSeries", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		order = append(order, args.Get(1).(schema.TimeSeriesChart).Name)
	})
	sink.On("RenderHeatmap", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		order = append(order, args.Get(1).(schema.HeatmapChart).Name)
	})

	require.NoError(t, Publish(ctx, sampleDatasets(), []contract.ChartSink{sink}))
	assert.Equal(t, schema.AllDatasets, order)
	sink.AssertNumberOfCalls(t, "RenderTimeSeries", 2)
	sink.AssertNumberOfCalls(t, "RenderHeatmap", 2)
}

func TestPublishStopsOnError(t *testing.T) {
	ctx := context.Background()
	failing := new(contract.MockChartSink)
	failing.On("RenderTimeSeries", ctx, mock.Anything).Return(errors.New("disk full"))
	never := new(contract.MockChartSink)

	err := Publish(ctx, sampleDatasets(), []contract.ChartSink{failing, never})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ts_state")
	failing.AssertNumberOfCalls(t, "RenderTimeSeries", 1)
	never.AssertNotCalled(t, "RenderTimeSeries", mock.Anything, mock.Anything)
}

func TestPublishCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := new(contract.MockChartSink)
	err := Publish(ctx, sampleDatasets(), []contract.ChartSink{sink})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSinkWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	for _, format := range []schema.OutputMode{schema.CSVOut, schema.JSONOut} {
		require.NoError(t, Publish(ctx, sampleDatasets(), []contract.ChartSink{NewFileSink(dir, format, 2)}))
	}

	for _, name := range schema.AllDatasets {
		for _, ext := range []string{"csv", "json"} {
			assert.FileExists(t, filepath.Join(dir, string(name)+"."+ext))
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "country_risk.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"rank,key,mean_risk,category,sample_size\n1,UAE,0.95,malicious,4\n2,Canada,0.25,safe,5\n",
		string(data))

	data, err = os.ReadFile(filepath.Join(dir, "ts_state.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,unapproved,approved\n2021-03-01,1,1\n2021-03-02,0,2\n", string(data))
}

func TestFileSinkUnsupportedFormat(t *testing.T) {
	sink := NewFileSink(t.TempDir(), schema.ParquetOut, 2)
	assert.Error(t, sink.RenderTimeSeries(context.Background(), schema.TimeSeriesChart{Name: schema.RiskCountsDataset}))
	assert.Error(t, sink.RenderHeatmap(context.Background(), schema.HeatmapChart{Name: schema.RegionRiskDataset}))
}

func TestTableSink(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Precision: 2, Width: 120}
	sink := NewTableSink(&buf, cfg)
	require.NoError(t, Publish(context.Background(), sampleDatasets(), []contract.ChartSink{sink}))

	out := buf.String()
	assert.Contains(t, out, "Daily Count By Outcome")
	assert.Contains(t, out, "Daily Count By Risk Level")
	assert.Contains(t, out, "2021-03-01")
	assert.Contains(t, out, "No groups above minimum support")
	assert.Contains(t, out, "Average Risk By Country")
	assert.Contains(t, out, "UAE")
	assert.Contains(t, out, "0.95")
	assert.Contains(t, out, "malicious")
	assert.Contains(t, out, "2 groups")
}

func TestTableSinkColors(t *testing.T) {
	previous := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = previous })

	var buf bytes.Buffer
	sink := NewTableSink(&buf, &contract.Config{Precision: 2, Width: 120, UseColors: true})
	require.NoError(t, Publish(context.Background(), sampleDatasets(), []contract.ChartSink{sink}))

	out := buf.String()
	assert.Contains(t, out, contract.HeaderColor.Sprint("Average Risk By Country"))
	assert.Contains(t, out, contract.GetColorLabel(0.95))
	assert.Contains(t, out, contract.GetColorLabel(0.25))
}

func TestGetMaxLabelWidth(t *testing.T) {
	assert.Equal(t, 10, getMaxLabelWidth(40))
	assert.Equal(t, 30, getMaxLabelWidth(80))
	assert.Equal(t, 40, getMaxLabelWidth(300))
}
