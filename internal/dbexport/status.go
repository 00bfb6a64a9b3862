package dbexport

import (
	"fmt"
	"io"
	"slices"

	"github.com/huangsam/riskboard/schema"
)

// PrintExportStatus prints export status information.
func PrintExportStatus(w io.Writer, status schema.ExportStatus) {
	_, _ = fmt.Fprintf(w, "Export Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	if status.LastRunID != "" {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
