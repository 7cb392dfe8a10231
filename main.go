package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"apifuzz/internal/config"
	"apifuzz/internal/executor"
	"apifuzz/internal/logger"
	"apifuzz/internal/parser"
	"apifuzz/internal/reporter"
)

func convertCaseResults(execResults []executor.CaseResult) []reporter.CaseResult {
	repResults := make([]reporter.CaseResult, len(execResults))
	for i, r := range execResults {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		repResults[i] = reporter.CaseResult{
			Endpoint: r.Endpoint,
			Method:   r.Method,
			CaseID:   r.CaseID,
			Status:   r.Status,
			Duration: r.Duration,
			Error:    errText,
			Request:  r.Request,
			Response: r.Response,
		}
	}
	return repResults
}

func main() {
	urlFlag := flag.String("url", "", "Base URL of the API under test (its OpenAPI doc is discovered automatically)")
	casesFlag := flag.Int("cases", 0, "Generated cases per endpoint (overrides config)")
	flag.Parse()

	// Load configuration; the -url flag works without a config file.
	cfg, err := config.LoadConfig()
	if err != nil {
		if *urlFlag == "" {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = config.Default()
	}

	baseURL := cfg.Environment.BaseURL
	if *urlFlag != "" {
		baseURL = *urlFlag
	}
	if baseURL == "" {
		log.Fatalf("No base URL configured. Pass -url or set environment.base_url in config/config.yaml")
	}
	if *casesFlag > 0 {
		cfg.Fuzz.CasesPerEndpoint = *casesFlag
	}

	runLogger, err := logger.NewLogger("logs", "fuzz")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer runLogger.Close()

	// Discover and parse the OpenAPI documentation
	swaggerParser := parser.NewSwaggerParser(baseURL)
	endpoints, err := swaggerParser.ParseEndpoints()
	if err != nil {
		log.Fatalf("Failed to parse endpoints: %v", err)
	}
	fmt.Printf("Found %d endpoints to fuzz\n", len(endpoints))

	// Initialize the fuzzing runner
	runner := executor.NewRunner(executor.Config{
		CasesPerEndpoint: cfg.Fuzz.CasesPerEndpoint,
		MaxWorkers:       cfg.Fuzz.MaxWorkers,
		Timeout:          cfg.Fuzz.Timeout,
		Seed:             cfg.Fuzz.Seed,
		ExtraHeaders:     cfg.AuthHeaders(),
		Retry: executor.RetryConfig{
			Attempts: cfg.Fuzz.Retry.Attempts,
			Delay:    time.Duration(cfg.Fuzz.Retry.Delay) * time.Second,
		},
	})

	// Initialize reporter
	fuzzReporter := reporter.NewReporter(reporter.ReportingConfig{
		Format:    cfg.Reporting.Format,
		OutputDir: cfg.Reporting.OutputDir,
		Detailed:  cfg.Reporting.Detailed,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Fuzz.Timeout)*time.Second*time.Duration(len(endpoints)+1))
	defer cancel()

	// Run the fuzzing pass
	results := runner.Run(ctx, endpoints)
	for _, r := range results {
		runLogger.LogCase(r.Method, r.Endpoint, r.CaseID, r.Status, r.Error)
	}

	// Generate report
	if err := fuzzReporter.GenerateReport(convertCaseResults(results), cfg.Fuzz.Seed); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	fmt.Printf("Fuzzing completed: %d cases, %d failures\n", len(results), failed)
}
