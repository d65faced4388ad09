// Package main measures how long the analyzer CLI takes on real Python repositories.
// Each suite runs with the result cache disabled and then enabled; the first cached
// run is reported as cold and the remaining ones are averaged as warm.
//
// Prerequisites:
// - analyzer binary installed and available in PATH
// - pylint, bandit, radon, flake8 and vulture installed and available in PATH
// - Test repositories cloned to the specified base directory: requests, flask, django
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one suite.
type BenchmarkResult struct {
	Repository  string
	Suite       string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkSuite is a named set of analyze arguments.
type BenchmarkSuite struct {
	Name string
	Args []string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase    string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	TestRepos   []string
	Suites      []BenchmarkSuite
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:    os.Args[1],
		Timeout:     10 * time.Minute,
		NoCacheRuns: 2,
		CacheRuns:   4,
		TestRepos:   []string{"requests", "flask", "django"},
		Suites: []BenchmarkSuite{
			{Name: "default", Args: nil},
			{Name: "all-tools", Args: []string{"--enable", "docs"}},
			{Name: "lint-only", Args: []string{"--disable", "security,complexity,style,deadcode"}},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("analyzer", "store", "clear", "--cache")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the binaries and test repositories exist.
func checkPrerequisites(config BenchmarkConfig) error {
	for _, bin := range []string{"analyzer", "pylint", "bandit", "radon", "flake8", "vulture"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s binary not found in PATH", bin)
		}
	}

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks executes every suite across the configured repositories.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %d suites, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.TestRepos), len(config.Suites), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		repoPath := filepath.Join(config.RepoBase, repo)
		for _, suite := range config.Suites {
			results = append(results, runBenchmarkSuite(config, repo, repoPath, suite))
		}
	}

	return results
}

// runBenchmarkSuite runs the no-cache and cache phases of one suite.
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath string, suite BenchmarkSuite) BenchmarkResult {
	fmt.Printf("Running %s suite on %s\n", suite.Name, repo)

	runPhase := func(noCache bool, numRuns int, phaseName string) (float64, string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		times := runBenchmark(config, repoPath, suite.Args, noCache, numRuns)
		return summarize(times, noCache)
	}

	_, noCacheAvg := runPhase(true, config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase(false, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:  repo,
		Suite:       suite.Name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// summarize returns the cold time and the formatted average of the remaining runs.
// Without a cache every run counts towards the average.
func summarize(times []float64, noCache bool) (float64, string) {
	if len(times) == 0 {
		return 0, "TIMEOUT"
	}
	cold := times[0]
	if !noCache {
		times = times[1:]
	}
	if len(times) == 0 {
		return cold, "n/a"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// runBenchmark runs analyze numRuns times and returns the durations of successful runs.
func runBenchmark(config BenchmarkConfig, repoPath string, extraArgs []string, noCache bool, numRuns int) []float64 {
	args := append([]string{"analyze", ".", "--store-backend", "none"}, extraArgs...)
	if noCache {
		args = append(args, "--no-cache")
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()

		cmd := exec.CommandContext(ctx, "analyzer", args...)
		cmd.Dir = repoPath
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}
	return times
}

// isSuccess checks if command output indicates a finished job.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Job ") && strings.Contains(outputStr, "finished in")
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("analyzer_benchmark_%s.csv", timestamp))

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

	if err := writer.Write([]string{"repo", "suite", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Suite, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by suite.
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, suite := range config.Suites {
		fmt.Printf("%s:\n", suite.Name)
		for _, result := range results {
			if result.Suite == suite.Name {
				fmt.Printf("  %-10s: No-cache: %s, Cold: %s, Warm: %s\n", result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
