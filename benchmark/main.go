// Package main provides a performance benchmarking tool for the riskboard CLI.
// It generates synthetic account exports of increasing size, runs the CLI
// against each one with several output combinations, treating the first
// successful run as cold and averaging the rest as warm, and writes the
// timings to a CSV file.
//
// Prerequisites:
// - riskboard binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated exports and artifacts
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the timings of one size and output combination.
type BenchmarkResult struct {
	Accounts string
	Outputs  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir   string
	Timeout   time.Duration
	Workers   int
	Runs      int
	Sizes     []int
	Outputs   []string
	Seed      uint64
	Regions   []string
	Countries []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:   os.Args[1],
		Timeout:   5 * time.Minute,
		Workers:   4,
		Runs:      4,
		Sizes:     []int{1_000, 10_000, 100_000},
		Outputs:   []string{"text", "csv,json", "parquet"},
		Seed:      42,
		Regions:   []string{"California", "Texas", "Ohio", "New York", "Florida", "Washington"},
		Countries: []string{"United States", "Canada", "United Arab Emirates", "Germany", "Brazil"},
	}

	if _, err := exec.LookPath("riskboard"); err != nil {
		fmt.Printf("Prerequisites check failed: riskboard binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks generates one export per size and times every output combination on it.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d workers, %d runs\n",
		len(config.Sizes), config.Timeout, config.Workers, config.Runs)

	for _, size := range config.Sizes {
		inputPath := filepath.Join(config.WorkDir, fmt.Sprintf("accounts_%d.json", size))
		if err := generateExport(config, size, inputPath); err != nil {
			fmt.Printf("Skipping %d accounts: %v\n", size, err)
			continue
		}

		for _, outputs := range config.Outputs {
			fmt.Printf("Running %d accounts with --output %s\n", size, outputs)
			cold, warm := runBenchmark(config, inputPath, outputs)
			results = append(results, BenchmarkResult{
				Accounts: strconv.Itoa(size),
				Outputs:  outputs,
				ColdTime: formatSeconds(cold),
				WarmTime: averageSeconds(warm),
			})
		}
	}

	return results
}

// generateExport writes a synthetic export with the given number of accounts.
func generateExport(config BenchmarkConfig, size int, path string) error {
	rng := rand.New(rand.NewPCG(config.Seed, uint64(size)))
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	states := []string{"approved", "unapproved"}

	accounts := make([]map[string]any, size)
	for i := range accounts {
		n := rng.IntN(5)
		devices := make([]map[string]any, n)
		for j := range devices {
			created := start.Add(time.Duration(rng.IntN(90*24)) * time.Hour)
			devices[j] = map[string]any{
				"created_at": created.Format(time.RFC3339),
				"risk":       rng.Float64(),
				"state":      states[rng.IntN(len(states))],
			}
		}
		accounts[i] = map[string]any{
			"id":            fmt.Sprintf("acct-%d", i),
			"risk":          rng.Float64(),
			"devices_count": n,
			"devices":       devices,
			"last_location": map[string]any{"location": map[string]any{
				"country": config.Countries[rng.IntN(len(config.Countries))],
				"region":  config.Regions[rng.IntN(len(config.Regions))],
			}},
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{"accounts": accounts})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// runBenchmark executes the CLI several times and returns cold time and warm times.
func runBenchmark(config BenchmarkConfig, inputPath, outputs string) (coldTime float64, warmTimes []float64) {
	args := []string{
		inputPath,
		"--output", outputs,
		"--output-dir", filepath.Join(config.WorkDir, "artifacts"),
		"--workers", strconv.Itoa(config.Workers),
		"--log-level", "error",
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()
		cmd := exec.Command("riskboard", args...)

		done := make(chan error, 1)
		go func() {
			_, err := cmd.CombinedOutput()
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func formatSeconds(s float64) string {
	if s <= 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", s)
}

func averageSeconds(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return formatSeconds(sum / float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("riskboard_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"accounts", "outputs", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Accounts, result.Outputs, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %8s accounts, %-9s: Cold: %s, Warm: %s\n", result.Accounts, result.Outputs, result.ColdTime, result.WarmTime)
	}
}
