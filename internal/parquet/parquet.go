// Package parquet provides data structures and functions for exporting riskboard
// datasets to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
	"github.com/parquet-go/parquet-go"
)

// DeviceRowsName is the base name of the device rows artifact.
const DeviceRowsName = "devices"

// CountRecord is one cell of a date by category count matrix, in long format.
type CountRecord struct {
	// Date is the calendar date at midnight UTC
	Date time.Time `parquet:"date,snappy"`

	// Category is a device state or risk category
	Category string `parquet:"category,snappy,dict"`

	// Count is the number of device rows for this date and category
	Count int32 `parquet:"count,snappy"`
}

// GroupRiskRecord is one retained group of a group risk table.
type GroupRiskRecord struct {
	// Rank is the 1-based position in mean risk order
	Rank int32 `parquet:"rank,snappy"`

	// Key is the region or country name
	Key string `parquet:"key,snappy"`

	// MeanRisk is the average account risk over the group's rows
	MeanRisk float64 `parquet:"mean_risk,snappy"`

	// SampleSize is the number of rows in the group
	SampleSize int32 `parquet:"sample_size,snappy"`
}

// DeviceRowRecord is one derived (account, device) row.
type DeviceRowRecord struct {
	AccountID       string    `parquet:"account_id,snappy"`
	AccountRisk     float64   `parquet:"account_risk,snappy"`
	DeviceCreatedAt time.Time `parquet:"device_created_at,snappy"`
	DeviceRisk      float64   `parquet:"device_risk,snappy"`
	DeviceState     string    `parquet:"device_state,snappy,dict"`
	DeviceCount     int32     `parquet:"device_count,snappy"`
	Country         *string   `parquet:"country,optional,snappy"`
	Region          *string   `parquet:"region,optional,snappy"`
	RiskCategory    string    `parquet:"risk_category,snappy,dict"`
}

// Sink writes every chart it receives as <dir>/<name>.parquet.
type Sink struct {
	Dir string
}

var _ contract.ChartSink = &Sink{} // Compile-time check

// NewSink creates a Parquet sink rooted at dir.
func NewSink(dir string) *Sink {
	return &Sink{Dir: dir}
}

// RenderTimeSeries implements the contract.ChartSink interface.
func (s *Sink) RenderTimeSeries(_ context.Context, chart schema.TimeSeriesChart) error {
	return WriteCountsParquet(CountRecordsOf(chart), s.path(chart.Name))
}

// RenderHeatmap implements the contract.ChartSink interface.
func (s *Sink) RenderHeatmap(_ context.Context, chart schema.HeatmapChart) error {
	return WriteGroupRiskParquet(GroupRiskRecordsOf(chart), s.path(chart.Name))
}

func (s *Sink) path(name schema.DatasetName) string {
	return contract.ArtifactPath(s.Dir, name, "parquet")
}

// CountRecordsOf flattens a time-series chart into long-format records,
// date-major and in label order within a date.
func CountRecordsOf(chart schema.TimeSeriesChart) []CountRecord {
	records := make([]CountRecord, 0, len(chart.X)*len(chart.Labels))
	for i, date := range chart.X {
		for j, label := range chart.Labels {
			records = append(records, CountRecord{
				Date:     date,
				Category: label,
				Count:    int32(chart.Series[j][i]),
			})
		}
	}
	return records
}

// GroupRiskRecordsOf converts a heatmap chart into ranked records.
func GroupRiskRecordsOf(chart schema.HeatmapChart) []GroupRiskRecord {
	records := make([]GroupRiskRecord, len(chart.RowLabels))
	for i, key := range chart.RowLabels {
		records[i] = GroupRiskRecord{
			Rank:       int32(i + 1),
			Key:        key,
			MeanRisk:   chart.Values[i][0],
			SampleSize: int32(chart.SampleSizes[i]),
		}
	}
	return records
}

// DeviceRowRecordsOf converts derived rows into records. Empty locations are stored as null.
func DeviceRowRecordsOf(rows []schema.DerivedRow) []DeviceRowRecord {
	records := make([]DeviceRowRecord, len(rows))
	for i, r := range rows {
		records[i] = DeviceRowRecord{
			AccountID:       r.AccountID,
			AccountRisk:     r.AccountRisk,
			DeviceCreatedAt: r.DeviceCreatedAt,
			DeviceRisk:      r.DeviceRisk,
			DeviceState:     string(r.DeviceState),
			DeviceCount:     int32(r.DeviceCount),
			Country:         optional(r.Country),
			Region:          optional(r.Region),
			RiskCategory:    string(r.RiskCategory),
		}
	}
	return records
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// WriteCountsParquet writes a slice of CountRecord structs to a Parquet file.
func WriteCountsParquet(data []CountRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteGroupRiskParquet writes a slice of GroupRiskRecord structs to a Parquet file.
func WriteGroupRiskParquet(data []GroupRiskRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteDeviceRowsParquet writes the derived rows of a run to <dir>/devices.parquet.
func WriteDeviceRowsParquet(rows []schema.DerivedRow, dir string) (string, error) {
	outputPath := filepath.Join(dir, DeviceRowsName+".parquet")
	return outputPath, writeParquet(DeviceRowRecordsOf(rows), outputPath)
}

// writeParquet creates the output file and writes all records with a schema
// inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
