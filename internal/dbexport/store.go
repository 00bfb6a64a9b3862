// Package dbexport writes the datasets of a run to a SQL database so that
// dashboards and notebooks can query them. Each run replaces the previous one.
package dbexport

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for the export.
const (
	runsTable        = "riskboard_runs"
	dailyCountsTable = "riskboard_daily_counts"
	groupRiskTable   = "riskboard_group_risk"
)

// exportTables lists every export table, in truncation order.
var exportTables = []string{runsTable, dailyCountsTable, groupRiskTable}

// StoreImpl implements the ExportStore interface.
type StoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ExportStore = &StoreImpl{} // Compile-time check

// driverName returns the database/sql driver registered for a backend.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// NewStore opens the export database, verifies the connection and migrates its schema.
// The none backend yields a store that accepts and discards every run.
func NewStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*StoreImpl, error) {
	if backend == schema.NoneBackend {
		return &StoreImpl{backend: backend}, nil
	}
	db, err := Open(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, backend, -1); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &StoreImpl{db: db, backend: backend}, nil
}

// Open connects to the export database of a backend without touching its schema.
// An empty SQLite connection string selects the default export file.
func Open(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	name, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetExportDBFilePath()
	}
	db, err := sql.Open(name, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Verify the database server is running and accessible", backend, err)
	}
	return db, nil
}

// MigrateTo opens the export database and moves its schema to targetVersion.
func MigrateTo(ctx context.Context, backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return fmt.Errorf("migrations are not supported for %s backend", backend)
	}
	db, err := Open(ctx, backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return Migrate(db, backend, targetVersion)
}

// WriteRun replaces the exported datasets with those of the given run, in one transaction.
func (s *StoreImpl) WriteRun(ctx context.Context, summary schema.RunSummary, datasets schema.Datasets) error {
	if s.db == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin export transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range exportTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO `+runsTable+` (run_id, input_path, accounts, device_rows, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`),
		summary.RunID, summary.InputPath, summary.Accounts, summary.Rows,
		formatTime(summary.StartedAt, s.backend), summary.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := s.insertCounts(ctx, tx, schema.StateCountsDataset, datasets.StateCounts); err != nil {
		return err
	}
	if err := s.insertCounts(ctx, tx, schema.RiskCountsDataset, datasets.RiskCounts); err != nil {
		return err
	}
	if err := s.insertGroups(ctx, tx, schema.RegionRiskDataset, datasets.RegionRisk); err != nil {
		return err
	}
	if err := s.insertGroups(ctx, tx, schema.CountryRiskDataset, datasets.CountryRisk); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export transaction: %w", err)
	}
	return nil
}

// insertCounts writes one record per matrix cell.
func (s *StoreImpl) insertCounts(ctx context.Context, tx *sql.Tx, name schema.DatasetName, m schema.CountMatrix) error {
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO `+dailyCountsTable+` (dataset, bucket_date, category, device_count) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", name, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, date := range m.Dates {
		day := date.Format(contract.DateFormat)
		for j, category := range m.Categories {
			if _, err := stmt.ExecContext(ctx, string(name), day, category, m.Counts[i][j]); err != nil {
				return fmt.Errorf("failed to insert %s count: %w", name, err)
			}
		}
	}
	return nil
}

// insertGroups writes one record per retained group, keeping its rank.
func (s *StoreImpl) insertGroups(ctx context.Context, tx *sql.Tx, name schema.DatasetName, t schema.GroupRiskTable) error {
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO `+groupRiskTable+` (dataset, group_rank, group_key, mean_risk, sample_size) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", name, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range t.Rows {
		if _, err := stmt.ExecContext(ctx, string(name), i+1, r.Key, r.MeanRisk, r.SampleSize); err != nil {
			return fmt.Errorf("failed to insert %s group: %w", name, err)
		}
	}
	return nil
}

// GetStatus returns the connection state, the last exported run and row counts per table.
func (s *StoreImpl) GetStatus(ctx context.Context) (schema.ExportStatus, error) {
	status := schema.ExportStatus{
		Backend:    string(s.backend),
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		return status, nil
	}
	status.Connected = true

	for _, table := range exportTables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return status, fmt.Errorf("failed to count %s: %w", table, err)
		}
		status.TableSizes[table] = n
	}

	if status.TableSizes[runsTable] > 0 {
		if err := s.db.QueryRowContext(ctx, "SELECT run_id FROM "+runsTable).Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to read last run: %w", err)
		}
	}
	return status, nil
}

// Close closes the database connection.
func (s *StoreImpl) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders into the numbered form PostgreSQL expects.
func (s *StoreImpl) rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatTime converts a time into the representation each backend stores.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}
