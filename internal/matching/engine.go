// Package matching implements MatchingEngine: the multi-layer
// document/name/DOB scoring engine that is the heart of the screening
// service. The engine is pure computation over a read-only index.Index
// — it holds no mutable state and is safe to call concurrently from any
// number of goroutines.
package matching

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/fuzzy"
	"sanctions-screening/internal/index"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/normalize"
)

// Engine evaluates ScreeningInput values against an Index.
type Engine struct {
	idx         *index.Index
	cfg         *config.Config
	commonNames map[string]bool
}

// New builds an Engine bound to idx and cfg. The common-names set is
// pre-normalized once here so Match never re-normalizes it per request.
func New(idx *index.Index, cfg *config.Config) *Engine {
	common := make(map[string]bool, len(cfg.Matching.CommonNames))
	for _, n := range cfg.Matching.CommonNames {
		if norm := normalize.Name(n); norm != "" {
			common[norm] = true
		}
	}
	return &Engine{idx: idx, cfg: cfg, commonNames: common}
}

// Outcome is the result of a Match call: the admitted matches (sorted
// and capped to limit) plus the total admitted count before truncation.
type Outcome struct {
	Matches      []models.MatchResult
	AdmittedCount int
	NameThreshold int
	ShortNameThreshold int
}

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{4})$`),
	regexp.MustCompile(`^(\d{4})-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/(\d{4})$`),
	regexp.MustCompile(`^\d{2}-\d{2}-(\d{4})$`),
}

// extractYear applies an ordered pattern list to pull a 4-digit year
// out of a date string in one of the supported shapes.
func extractYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for _, re := range yearPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			if y, err := strconv.Atoi(m[1]); err == nil {
				return y, true
			}
		}
	}
	return 0, false
}

func dobScore(inputDOB, entityDOB string) float64 {
	iy, ok1 := extractYear(inputDOB)
	ey, ok2 := extractYear(entityDOB)
	if !ok1 || !ok2 {
		return 0
	}
	diff := iy - ey
	if diff < 0 {
		diff = -diff
	}
	score := 100 - 20*float64(diff)
	if score < 0 {
		return 0
	}
	return score
}

// upperSet builds a deduplicated, uppercased set from the non-empty
// values provided.
func upperSet(values ...string) map[string]bool {
	set := make(map[string]bool)
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToUpper(v)] = true
		}
	}
	return set
}

// nationalityFlag implements the informational-only nationality
// comparison: exact set intersection first, then a
// length-guarded substring rule to avoid false positives like "USA" in
// "JERUSALEM".
func nationalityFlag(inputSet, entitySet map[string]bool) string {
	for a := range inputSet {
		if entitySet[a] {
			return models.FlagNationalityExactMatchInfo
		}
	}
	for a := range inputSet {
		for b := range entitySet {
			shorter, longer := a, b
			if len(longer) < len(shorter) {
				shorter, longer = longer, shorter
			}
			if len(shorter) < 4 {
				continue
			}
			if strings.HasPrefix(a, b) || strings.HasSuffix(a, b) ||
				strings.HasPrefix(b, a) || strings.HasSuffix(b, a) {
				return models.FlagNationalitySubstringMatchInfo
			}
		}
	}
	return ""
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func documentMatches(entity *models.SanctionsEntity, normalizedDoc string) (bool, string) {
	if normalizedDoc == "" {
		return false, ""
	}
	for _, doc := range entity.IdentityDocuments {
		if normalize.Document(doc.Number) == normalizedDoc {
			return true, doc.Number
		}
	}
	if entity.VesselIMO != "" && normalize.Document(entity.VesselIMO) == normalizedDoc {
		return true, entity.VesselIMO
	}
	return false, ""
}

func documentTypeMatches(entity *models.SanctionsEntity, normalizedDoc, documentType string) bool {
	if documentType == "" {
		return true
	}
	for _, doc := range entity.IdentityDocuments {
		if normalize.Document(doc.Number) == normalizedDoc && strings.EqualFold(doc.Type, documentType) {
			return true
		}
	}
	if entity.VesselIMO != "" && normalize.Document(entity.VesselIMO) == normalizedDoc &&
		strings.EqualFold(string(models.FeatureVesselIMO), documentType) {
		return true
	}
	return false
}

// Match evaluates input against the Engine's Index and returns an
// Outcome whose Matches are sorted by confidence.overall descending
// (ties broken by Index iteration order) and capped to limit.
func (e *Engine) Match(input models.ScreeningInput, limit int) Outcome {
	if limit <= 0 {
		limit = e.cfg.Matching.DefaultLimit
	}

	normalizedDoc := normalize.Document(input.DocumentNumber)
	q := normalize.Name(input.Name)

	rawName := strings.TrimSpace(input.Name)
	nameThreshold := e.cfg.Matching.Layers.LowMatch
	var adaptiveFlag string
	usedShortName := isShortName(rawName)
	if usedShortName {
		nameThreshold, adaptiveFlag = adaptiveThreshold(rawName, e.cfg.Matching.ShortNameThreshold)
	}

	inputNationalitySet := upperSet(input.Nationality, input.Country)

	var layer1Hits int
	var anyDocumentMatch bool
	var results []models.MatchResult

	entities := e.idx.Entities()
	for i := range entities {
		entity := &entities[i]

		docMatched, matchedDocNumber := documentMatches(entity, normalizedDoc)

		if docMatched {
			anyDocumentMatch = true
		}

		if docMatched && documentTypeMatches(entity, normalizedDoc, input.DocumentType) {
			layer1Hits++
			results = append(results, models.MatchResult{
				EntityRef:       entity,
				MatchedName:     entity.PrimaryName,
				MatchedDocument: matchedDocNumber,
				MatchLayer:      1,
				Confidence: models.Confidence{
					Overall: 100, Name: 100, Document: 100, DOB: 0, Nationality: 0, Address: 0,
				},
				Flags:          []string{models.FlagDocumentExactMatch},
				Recommendation: models.AutoEscalate,
			})
			continue
		}

		nameScore := 0.0
		matchedName := entity.PrimaryName
		for _, candidate := range entity.AllNames {
			s := fuzzy.TokenSortRatio(q, normalize.Name(candidate)) * 100
			if s > nameScore {
				nameScore = s
				matchedName = candidate
			}
		}

		if nameScore < float64(nameThreshold) {
			continue
		}

		docScore := 0.0
		if docMatched {
			docScore = 100
		}

		dScore := dobScore(input.DateOfBirth, entity.DateOfBirth)

		entityNationalitySet := upperSet(append(append([]string{}, entity.Countries...), entity.Nationality, entity.Citizenship)...)
		natFlag := ""
		if len(inputNationalitySet) > 0 {
			natFlag = nationalityFlag(inputNationalitySet, entityNationalitySet)
		}

		// overall is the weighted mean over the dimensions the input can be
		// compared on: name always, document when the input carries one,
		// DOB when both sides have an extractable year.
		weighted, totalWeight := e.cfg.Matching.Weights.Name*nameScore, e.cfg.Matching.Weights.Name
		if normalizedDoc != "" {
			weighted, totalWeight = weighted+e.cfg.Matching.Weights.Document*docScore, totalWeight+e.cfg.Matching.Weights.Document
		}
		_, inputYearOK := extractYear(input.DateOfBirth)
		if _, entityYearOK := extractYear(entity.DateOfBirth); inputYearOK && entityYearOK {
			weighted, totalWeight = weighted+e.cfg.Matching.Weights.DOB*dScore, totalWeight+e.cfg.Matching.Weights.DOB
		}
		overall := 0.0
		if totalWeight > 0 {
			overall = clamp100(weighted / totalWeight)
		}

		if overall < float64(e.cfg.Matching.BaseThreshold) && docScore != 100 {
			continue
		}

		layer := matchLayer(docScore, nameScore, dScore, natFlag != "", e.cfg.Matching.Layers.HighConfidence, e.cfg.Matching.Layers.ModerateMatch)

		result := models.MatchResult{
			EntityRef:       entity,
			MatchedName:     matchedName,
			MatchLayer:      layer,
			Confidence: models.Confidence{
				Overall: overall, Name: nameScore, Document: docScore, DOB: dScore,
				Nationality: 0, Address: 0,
			},
			Recommendation: recommendationFor(overall, e.cfg.Matching.Recommendation.AutoEscalate, e.cfg.Matching.Recommendation.ManualReview, e.cfg.Matching.Recommendation.AutoClear),
		}

		if docScore == 100 {
			result.MatchedDocument = matchedDocNumber
			result.AddFlag(models.FlagDocumentMatch)
		}

		if usedShortName {
			result.AddFlag(models.FlagShortNameQuery)
			result.AddFlag(adaptiveFlag)
		}
		if natFlag != "" {
			result.AddFlag(natFlag)
		}
		if entity.EntityType != models.EntityIndividual {
			result.AddFlag(models.FlagEntityMatch)
		}
		if e.commonNames[q] {
			result.AddFlag(models.FlagCommonName)
			if docScore != 100 {
				result.AddFlag(models.FlagCommonNameRequiresSecondaryValidation)
				if result.Recommendation == models.AutoEscalate {
					result.Recommendation = models.ManualReview
				}
			}
		}

		results = append(results, result)
	}

	if normalizedDoc != "" && !anyDocumentMatch {
		for i := range results {
			results[i].AddFlag(models.FlagNoDocumentMatch)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence.Overall > results[j].Confidence.Overall
	})

	admitted := len(results)
	if len(results) > limit {
		results = results[:limit]
	}

	return Outcome{
		Matches:            results,
		AdmittedCount:      admitted,
		NameThreshold:      nameThreshold,
		ShortNameThreshold: e.cfg.Matching.ShortNameThreshold,
	}
}
