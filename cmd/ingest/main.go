// Command ingest runs one fetch→parse→validate→index pass over every
// configured sanctions-list source and reports the resulting corpus
// statistics. It is the operational counterpart to cmd/server's
// background reload loop — useful for cron-driven or manually-triggered
// refreshes outside of a long-running server process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/ingest"
	"sanctions-screening/internal/observability"
	"sanctions-screening/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall ingestion timeout")
	flag.Parse()

	logger := observability.NewLogger(os.Getenv("SCREENING_ENV") != "production")
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pipeline := ingest.NewPipeline(cfg, logger)

	start := time.Now()
	idx, stats, err := pipeline.Run(ctx)
	if err != nil {
		logger.WithError(err).Error("ingestion failed")
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"entity_count":     stats.EntityCount,
		"malformed_count":  stats.MalformedCount,
		"malformed_ratio":  stats.MalformedRatio,
		"index_size":       idx.Len(),
		"elapsed":          time.Since(start).String(),
	}).Info("ingestion completed")

	if historyStore, err := store.Open(ctx, cfg, logger); err != nil {
		logger.WithError(err).Warn("history store unavailable, skipping audit write")
	} else if historyStore != nil {
		defer historyStore.Close()
	}

	fmt.Printf("ingested %d entities (%d malformed, %.2f%% ratio) in %s\n",
		stats.EntityCount, stats.MalformedCount, stats.MalformedRatio*100, time.Since(start).Round(time.Millisecond))
}
