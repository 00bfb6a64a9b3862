package contract

import (
	"context"

	"github.com/huangsam/riskboard/schema"
	"github.com/stretchr/testify/mock"
)

// MockChartSink is a mock type for the ChartSink type.
type MockChartSink struct {
	mock.Mock
}

var _ ChartSink = &MockChartSink{} // Compile-time check

// RenderTimeSeries implements the ChartSink interface.
func (m *MockChartSink) RenderTimeSeries(ctx context.Context, chart schema.TimeSeriesChart) error {
	return m.Called(ctx, chart).Error(0)
}

// RenderHeatmap implements the ChartSink interface.
func (m *MockChartSink) RenderHeatmap(ctx context.Context, chart schema.HeatmapChart) error {
	return m.Called(ctx, chart).Error(0)
}

// MockExportStore is a mock type for the ExportStore type.
type MockExportStore struct {
	mock.Mock
}

var _ ExportStore = &MockExportStore{} // Compile-time check

// WriteRun implements the ExportStore interface.
func (m *MockExportStore) WriteRun(ctx context.Context, summary schema.RunSummary, datasets schema.Datasets) error {
	return m.Called(ctx, summary, datasets).Error(0)
}

// GetStatus implements the ExportStore interface.
func (m *MockExportStore) GetStatus(ctx context.Context) (schema.ExportStatus, error) {
	ret := m.Called(ctx)
	status, _ := ret.Get(0).(schema.ExportStatus)
	return status, ret.Error(1)
}

// Close implements the ExportStore interface.
func (m *MockExportStore) Close() error {
	return m.Called().Error(0)
}
