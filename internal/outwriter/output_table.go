package outwriter

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// TableSink prints every chart as a human-readable table.
type TableSink struct {
	w         io.Writer
	precision int
	width     int
	useColors bool
}

var _ contract.ChartSink = &TableSink{} // Compile-time check

// NewTableSink creates a table sink writing to w with the display settings of cfg.
func NewTableSink(w io.Writer, cfg *contract.Config) *TableSink {
	return &TableSink{w: w, precision: cfg.Precision, width: cfg.Width, useColors: cfg.UseColors}
}

// RenderTimeSeries prints one row per date with a column per category and a total.
func (s *TableSink) RenderTimeSeries(_ context.Context, chart schema.TimeSeriesChart) error {
	if err := s.printTitle(chart.Title); err != nil {
		return err
	}
	table := tablewriter.NewWriter(s.w)

	// --- 1. Define Headers ---
	headers := append([]string{"Date"}, chart.Labels...)
	headers = append(headers, "Total")
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	data := make([][]string, 0, len(chart.X))
	for i, date := range chart.X {
		row := []string{date.Format(contract.DateFormat)}
		total := 0
		for j := range chart.Labels {
			row = append(row, strconv.Itoa(chart.Series[j][i]))
			total += chart.Series[j][i]
		}
		row = append(row, strconv.Itoa(total))
		data = append(data, row)
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.w, "%d dates, %d categories\n\n", len(chart.X), len(chart.Labels))
	return err
}

// RenderHeatmap prints one ranked row per retained group.
func (s *TableSink) RenderHeatmap(_ context.Context, chart schema.HeatmapChart) error {
	if err := s.printTitle(chart.Title); err != nil {
		return err
	}
	if len(chart.RowLabels) == 0 {
		_, err := fmt.Fprintln(s.w, "No groups above minimum support")
		return err
	}

	fmtFloat, intFmt := createFormatters(s.precision)
	table := tablewriter.NewWriter(s.w)
	table.Header([]string{"Rank", "Group", "Mean Risk", "Category", "Samples"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := getMaxLabelWidth(s.width)
	data := make([][]string, 0, len(chart.RowLabels))
	for i, key := range chart.RowLabels {
		mean := chart.Values[i][0]
		category := contract.GetPlainLabel(mean)
		if s.useColors {
			category = contract.GetColorLabel(mean)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateLabel(key, labelWidth),
			fmtFloat(mean),
			category,
			fmt.Sprintf(intFmt, chart.SampleSizes[i]),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.w, "%d groups\n\n", len(chart.RowLabels))
	return err
}

func (s *TableSink) printTitle(title string) error {
	sprint := fmt.Sprint
	if s.useColors {
		sprint = contract.HeaderColor.SprintFunc()
	}
	_, err := fmt.Fprintln(s.w, sprint(title))
	return err
}
