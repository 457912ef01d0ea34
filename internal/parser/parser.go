// Package parser implements the source-specific extraction stage:
// turning OFAC Enhanced XML or UN Consolidated XML into the unified
// models.SanctionsEntity shape, streamed through xmlsec.Reader so no
// parser ever holds more than one source record in memory at a time.
package parser

import "sanctions-screening/internal/models"

// Parser extracts entities from a single XML file into cb, one entity
// at a time, returning the first error encountered.
type Parser interface {
	Parse(path string, cb func(models.SanctionsEntity) error) error
}
