package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/dbexport"
	"github.com/huangsam/riskboard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportSetup loads minimal configuration needed for export operations.
// It skips input validation since no pipeline runs.
func exportSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("export-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid export backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("export-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.ExportBackend = backend
	cfg.ExportDBConnect = connStr
	return nil
}

// exportSetupWrapper wraps exportSetup to provide PreRunE for export commands.
func exportSetupWrapper(_ *cobra.Command, _ []string) error {
	return exportSetup()
}

// exportCmd focused on the SQL export target.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Manage the SQL export of dataset runs",
	Long: `Manage the SQL database that receives each run when --export-backend is set.

Supported backends: SQLite, MySQL, PostgreSQL, or None

Subcommands:
  status  - Show connection info and table sizes
  migrate - Run database schema migrations

Examples:
  # Check the default SQLite export
  riskboard export status --export-backend sqlite

  # Migrate a PostgreSQL export (set connection string via env variable)
  RISKBOARD_EXPORT_BACKEND=postgresql RISKBOARD_EXPORT_DB_CONNECT="..." riskboard export migrate`,
}

// exportStatusCmd shows export status.
var exportStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display export connection details and table sizes",
	Long: `Show the export backend, whether it is reachable, the last exported run
and the number of records in each export table.`,
	PreRunE: exportSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := dbexport.NewStore(rootCtx, cfg.ExportBackend, cfg.ExportDBConnect)
		if err != nil {
			contract.LogFatal("Failed to open export store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get export status", err)
		}
		dbexport.PrintExportStatus(os.Stdout, status)
	},
}

// exportMigrateCmd runs export schema migrations.
var exportMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the SQL export.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  riskboard export migrate --export-backend sqlite

  # Migrate to specific version
  riskboard export migrate --export-backend sqlite --target-version 2

  # Rollback to the initial state
  riskboard export migrate --export-backend sqlite --target-version 0`,
	PreRunE: exportSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := dbexport.MigrateTo(rootCtx, cfg.ExportBackend, cfg.ExportDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("Export schema migrated successfully.")
	},
}
