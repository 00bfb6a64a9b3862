// Package cmd defines the command-line interface for riskboard.
package cmd

import (
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the export subcommands to the parent export command
	exportCmd.AddCommand(exportStatusCmd)
	exportCmd.AddCommand(exportMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Directory for csv, json and parquet artifacts")
	rootCmd.PersistentFlags().StringP("output", "o", string(schema.TextOut), "Comma-separated output formats: text, csv, json, parquet")
	rootCmd.PersistentFlags().Int("min-support", schema.DefaultMinSupport, "Groups need strictly more device rows than this to be kept")
	rootCmd.PersistentFlags().String("focus-country", schema.DefaultFocusCountry, "Country whose regions form the regional risk table")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for mean risk columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of aggregations allowed to run at once")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("export-backend", string(schema.NoneBackend), "SQL export backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("export-db-connect", "", "Database connection string for the SQL export (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Listen address of the dashboard server")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of exportMigrateCmd to Viper
	exportMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(exportMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export migrate flags", err)
	}
}
