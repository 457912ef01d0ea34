// Package ingest implements the post-parse Validator and the
// Fetch→Parse→Validate→Normalize→Index pipeline orchestration that
// produces a new index.Index snapshot.
package ingest

import (
	"fmt"

	"sanctions-screening/internal/models"
)

// Stats summarizes one ingestion run's entity counts for ratio-style
// reporting.
type Stats struct {
	EntityCount    int
	MalformedCount int
	MalformedRatio float64
}

// Validator checks a batch of parsed entities against configured
// required-field and malformation-ratio rules.
type Validator struct {
	requiredFields               map[string]bool
	malformedEntityThreshold     float64
	entityCountVarianceThreshold float64
	previousEntityCount          int
}

// NewValidator builds a Validator. requiredFields mirrors
// config.Data.RequiredFields (default {id, name, source}); previousCount
// is the entity_count from the prior successful load (0 if none).
func NewValidator(requiredFields []string, malformedThreshold, varianceThreshold float64, previousCount int) *Validator {
	set := make(map[string]bool, len(requiredFields))
	for _, f := range requiredFields {
		set[f] = true
	}
	return &Validator{
		requiredFields:               set,
		malformedEntityThreshold:     malformedThreshold,
		entityCountVarianceThreshold: varianceThreshold,
		previousEntityCount:          previousCount,
	}
}

// isMalformed reports whether entity is missing any field this
// Validator's configuration requires.
func (v *Validator) isMalformed(entity models.SanctionsEntity) bool {
	if v.requiredFields["id"] && entity.ExternalID == "" {
		return true
	}
	if v.requiredFields["name"] && entity.PrimaryName == "" {
		return true
	}
	if v.requiredFields["source"] && entity.Source == "" {
		return true
	}
	if v.requiredFields["type"] && entity.EntityType == "" {
		return true
	}
	return false
}

// Validate scans entities, computing malformation stats and filtering
// out malformed entities from the usable set it returns. If the
// malformation ratio exceeds the configured threshold, it returns
// VALIDATION_ABORT and no usable entities. A variance warning (not an
// error) is returned via warn when entity_count diverges too far from
// previousEntityCount; callers decide whether to surface it.
func (v *Validator) Validate(entities []models.SanctionsEntity) (usable []models.SanctionsEntity, stats Stats, warn string, err *models.CoreError) {
	stats.EntityCount = len(entities)

	for _, e := range entities {
		if v.isMalformed(e) {
			stats.MalformedCount++
			continue
		}
		usable = append(usable, e)
	}

	if stats.EntityCount > 0 {
		stats.MalformedRatio = float64(stats.MalformedCount) / float64(stats.EntityCount)
	}

	if stats.MalformedRatio > v.malformedEntityThreshold {
		return nil, stats, "", models.NewIngestError(models.ErrValidationAbort,
			fmt.Sprintf("malformed entity ratio %.4f exceeds threshold %.4f", stats.MalformedRatio, v.malformedEntityThreshold), nil)
	}

	if v.previousEntityCount > 0 {
		delta := float64(stats.EntityCount-v.previousEntityCount) / float64(v.previousEntityCount)
		if delta < 0 {
			delta = -delta
		}
		if delta > v.entityCountVarianceThreshold {
			warn = fmt.Sprintf("entity count changed by %.2f%% relative to previous load (%d -> %d), exceeding variance threshold %.2f%%",
				delta*100, v.previousEntityCount, stats.EntityCount, v.entityCountVarianceThreshold*100)
		}
	}

	return usable, stats, warn, nil
}
