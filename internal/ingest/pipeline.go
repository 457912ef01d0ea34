package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/fetch"
	"sanctions-screening/internal/index"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
	"sanctions-screening/internal/parser"
	"sanctions-screening/internal/resource"
)

// knownHashes is the §4.1 "known_hashes.json side-channel": a simple
// source-name → expected-SHA-256 map, loaded best-effort.
type knownHashes map[string]string

func loadKnownHashes(path string) knownHashes {
	hashes := knownHashes{}
	if path == "" {
		return hashes
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return hashes
	}
	_ = json.Unmarshal(data, &hashes)
	return hashes
}

// Pipeline runs Fetch → SecureXmlReader(via Parser) → Validator →
// Index for every configured source, producing one merged Index.
type Pipeline struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
	logger  *observability.Logger
	metrics *observability.ScreeningMetrics

	previousEntityCount int
}

// NewPipeline builds a Pipeline bound to cfg.
func NewPipeline(cfg *config.Config, logger *observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NewLogger(true)
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetch.New(2*time.Minute, fetch.WithLogger(logger)),
		logger:  logger,
		metrics: observability.GetScreeningMetrics(),
	}
}

// Run fetches and parses every configured source, validates the merged
// entity set, and builds a fresh Index. It never mutates any previously
// published Index — callers are expected to atomically swap the
// returned Index into place.
func (p *Pipeline) Run(ctx context.Context) (*index.Index, Stats, error) {
	if err := resource.CheckIngestAllowed(p.cfg); err != nil {
		return nil, Stats{}, err
	}

	hashes := loadKnownHashes(p.cfg.Data.KnownHashesPath)

	var allEntities []models.SanctionsEntity
	var unknownNotices []string

	for _, src := range p.cfg.Data.Sources {
		start := time.Now()
		destDir := filepath.Join(p.cfg.Data.DataDir, src.Name)

		var knownHash string
		if p.cfg.Data.VerifyKnownHashes {
			knownHash = hashes[src.Name]
		}

		result, err := p.fetcher.FetchZip(ctx, src.URL, destDir, knownHash)
		if err != nil {
			p.metrics.IngestDurationSeconds.WithLabelValues("fetch", src.Name).Observe(time.Since(start).Seconds())
			return nil, Stats{}, err
		}
		p.metrics.IngestDurationSeconds.WithLabelValues("fetch", src.Name).Observe(time.Since(start).Seconds())

		parseStart := time.Now()
		var p2 parser.Parser
		switch src.Name {
		case "ofac", "OFAC":
			p2 = parser.NewOFACParser()
		case "un", "UN":
			p2 = parser.NewUNParser(func(kind, value string) {
				unknownNotices = append(unknownNotices, kind+":"+value)
				p.logger.WithFields(map[string]interface{}{
					"kind": kind, "value": value,
				}).Warn("unrecognized UN reference component")
			})
		default:
			p2 = parser.NewOFACParser()
		}

		err = p2.Parse(result.XMLPath, func(e models.SanctionsEntity) error {
			allEntities = append(allEntities, e)
			return nil
		})
		p.metrics.IngestDurationSeconds.WithLabelValues("parse", src.Name).Observe(time.Since(parseStart).Seconds())
		if err != nil {
			return nil, Stats{}, err
		}
	}

	validator := NewValidator(
		p.cfg.Data.RequiredFields,
		p.cfg.Data.MalformedEntityThreshold,
		p.cfg.Data.EntityCountVarianceThreshold,
		p.previousEntityCount,
	)
	usable, stats, warn, verr := validator.Validate(allEntities)
	if verr != nil {
		return nil, stats, verr
	}
	if warn != "" {
		p.logger.Warn(warn)
	}

	p.metrics.IngestMalformedRatio.Set(stats.MalformedRatio)

	idx := index.Build(usable)
	p.metrics.IndexEntityCount.Set(float64(idx.Len()))
	p.previousEntityCount = stats.EntityCount

	return idx, stats, nil
}
