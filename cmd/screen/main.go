// Command screen builds a fresh index from the configured sources and
// runs a single screening request against it, printing the resulting
// ScreeningResponse as JSON. It is meant for local smoke-testing and
// scripted batch screening, not for production traffic — cmd/server
// serves that over HTTP with a long-lived, periodically reloaded index.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/ingest"
	"sanctions-screening/internal/matching"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
	"sanctions-screening/internal/screening"
	"sanctions-screening/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	name := flag.String("name", "", "name to screen (required)")
	document := flag.String("document", "", "identity document number")
	documentType := flag.String("document-type", "", "identity document type")
	dob := flag.String("dob", "", "date of birth")
	nationality := flag.String("nationality", "", "nationality")
	country := flag.String("country", "", "country")
	analyst := flag.String("analyst", "", "analyst identifier for audit trails")
	limit := flag.Int("limit", 20, "maximum matches to return")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout, including index build")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "screen: -name is required")
		os.Exit(2)
	}

	logger := observability.NewLogger(os.Getenv("SCREENING_ENV") != "production")
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	idx, stats, err := ingest.NewPipeline(cfg, logger).Run(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to build index")
		os.Exit(1)
	}
	logger.WithFields(map[string]interface{}{
		"entity_count": stats.EntityCount,
	}).Info("index ready")

	validator := validation.New(cfg, logger)
	engine := matching.New(idx, cfg)
	orchestrator := screening.New(validator, engine, logger, cfg.Performance.RecentScreeningsCap)

	input := models.ScreeningInput{
		Name:           *name,
		DocumentNumber: *document,
		DocumentType:   *documentType,
		DateOfBirth:    *dob,
		Nationality:    *nationality,
		Country:        *country,
		Analyst:        *analyst,
	}

	resp, coreErr := orchestrator.Screen(ctx, input, *limit)
	if coreErr != nil {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		enc.Encode(coreErr)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		logger.WithError(err).Error("failed to encode screening response")
		os.Exit(1)
	}
}
