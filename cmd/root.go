package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/riskboard/core"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/logging"
	"github.com/huangsam/riskboard/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd builds the dashboard datasets for one account export.
var rootCmd = &cobra.Command{
	Use:   "riskboard input.json",
	Short: "Build fraud risk dashboard datasets from an account export.",
	Long: `Riskboard flattens a nested account/device export and turns it into dashboard datasets.

Every run produces four datasets:
- ts_state:      daily device counts by approval state
- ts_risk:       daily device counts by account risk category
- usregion_risk: mean account risk per region of the focus country
- country_risk:  mean account risk per country

Examples:
  # Print all four datasets as tables
  riskboard accounts.json

  # Write csv and json artifacts for a dashboard
  riskboard accounts.json --output csv,json --output-dir static/data

  # Keep smaller groups and also export to SQLite
  riskboard accounts.json --min-support 1 --export-backend sqlite`,
	Version:            version,
	Args:               cobra.ExactArgs(1),
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args, setupOptions{})
	},
	Run: func(_ *cobra.Command, _ []string) {
		if _, err := core.ExecuteBuild(rootCtx, cfg, os.Stdout); err != nil {
			contract.LogFatal("Cannot build datasets", err)
		}
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env file in the working directory seeds the environment
	_ = godotenv.Load()

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".riskboard")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("RISKBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("output-dir", contract.DefaultOutputDir)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("min-support", schema.DefaultMinSupport)
	viper.SetDefault("focus-country", schema.DefaultFocusCountry)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("color", "yes")
	viper.SetDefault("export-backend", schema.NoneBackend)
	viper.SetDefault("export-db-connect", "")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.DefaultLogFormat)
	viper.SetDefault("addr", contract.DefaultAddr)
}

// setupOptions tunes sharedSetup for a command.
type setupOptions struct {
	stderrOnly    bool // Keep stdout free of logs
	inputOptional bool // Accept a run without a positional input file
}

// sharedSetup unmarshals config, runs validation and starts the logger.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string, opts setupOptions) error {
	profilePrefix := viper.GetString("profile")
	if err := contract.ProcessProfilingConfig(profile, profilePrefix); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if len(args) == 1 {
		input.InputPathStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	validate := contract.ProcessAndValidate
	if opts.inputOptional {
		validate = contract.ProcessSettings
	}
	if err := validate(cfg, input); err != nil {
		return err
	}

	if _, err := logging.Init(cfg.LogLevel, cfg.LogFormat, opts.stderrOnly); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// loadConfigFile reads the config file if one is present.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
