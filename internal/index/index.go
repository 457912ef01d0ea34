// Package index implements Index: an immutable, read-only-after-
// construction lookup structure built from a stream of canonicalized
// entities. Ordinary readers never lock — callers swap Index references
// atomically, so Index itself only needs to guarantee that once Build
// returns, nothing about it ever changes again.
package index

import (
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/normalize"
)

// Index is the MatchingEngine's read-only view of the corpus.
type Index struct {
	entities       []models.SanctionsEntity
	documentIndex  map[string][]*models.SanctionsEntity
}

// Build constructs an Index from entities in O(E+D) time, where E is the
// entity count and D is the total number of identity documents across
// all entities.
func Build(entities []models.SanctionsEntity) *Index {
	idx := &Index{
		entities:      entities,
		documentIndex: make(map[string][]*models.SanctionsEntity),
	}
	for i := range idx.entities {
		e := &idx.entities[i]
		for _, doc := range e.IdentityDocuments {
			key := normalize.Document(doc.Number)
			if key == "" {
				continue
			}
			idx.documentIndex[key] = append(idx.documentIndex[key], e)
		}
		if key := normalize.Document(e.VesselIMO); key != "" {
			idx.documentIndex[key] = append(idx.documentIndex[key], e)
		}
	}
	return idx
}

// Entities returns the ordered sequence of all loaded entities. The
// returned slice must not be mutated by callers.
func (idx *Index) Entities() []models.SanctionsEntity {
	return idx.entities
}

// Len reports the number of entities in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entities)
}

// LookupDocument returns every entity reference whose normalized
// document number equals the already-normalized key q, or nil if none
// match.
func (idx *Index) LookupDocument(q string) []*models.SanctionsEntity {
	if idx == nil || q == "" {
		return nil
	}
	return idx.documentIndex[q]
}
