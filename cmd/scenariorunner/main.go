package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/jsbind/logging"
	"github.com/example/jsbind/testrunner"
)

func main() {
	dir := flag.String("dir", "testrunner/testdata/scenarios", "directory of scenario files")
	filter := flag.String("filter", "", "filter scenarios by path substring")
	limit := flag.Int("limit", 0, "maximum number of scenarios to run (0 = all)")
	timeout := flag.Duration("timeout", 5*time.Second, "per scenario timeout")
	verbose := flag.Bool("v", false, "verbose output (print each result)")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if _, err := os.Stat(*dir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: scenario directory not found at %s\n", *dir)
		os.Exit(1)
	}
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	results, summary := testrunner.Run(testrunner.Config{
		Dir:     *dir,
		Filter:  *filter,
		Limit:   *limit,
		Verbose: *verbose,
		Timeout: *timeout,
		Logger:  logging.New(&logging.Config{Level: level, Format: "text", Output: os.Stderr}),
	})

	if !*verbose {
		for _, r := range results {
			if r.Result == testrunner.Pass {
				continue
			}
			fmt.Printf("%s %s %s\n", r.Result, r.Path, r.Message)
		}
	}

	fmt.Println()
	fmt.Println("=== Scenario Summary ===")
	fmt.Printf("Total:   %d\n", summary.Total)
	fmt.Printf("Passed:  %d\n", summary.Passed)
	fmt.Printf("Failed:  %d\n", summary.Failed)
	fmt.Printf("Skipped: %d\n", summary.Skipped)
	fmt.Printf("Errors:  %d\n", summary.Errors)
	fmt.Printf("Elapsed: %s\n", summary.Elapsed)

	if summary.Failed > 0 || summary.Errors > 0 {
		os.Exit(1)
	}
}
