package models

import "time"

// Recommendation is the disposition recommendation attached to a match.
type Recommendation string

const (
	AutoEscalate         Recommendation = "AUTO_ESCALATE"
	ManualReview         Recommendation = "MANUAL_REVIEW"
	LowConfidenceReview  Recommendation = "LOW_CONFIDENCE_REVIEW"
	AutoClear            Recommendation = "AUTO_CLEAR"
)

// ScreeningInput is a single identity submitted for screening.
type ScreeningInput struct {
	Name           string `json:"name"`
	DocumentNumber string `json:"document,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	Country        string `json:"country,omitempty"`
	Analyst        string `json:"analyst,omitempty"`
}

// Confidence is the multi-dimensional confidence score attached to a match.
type Confidence struct {
	Overall     float64 `json:"overall"`
	Name        float64 `json:"name"`
	Document    float64 `json:"document"`
	DOB         float64 `json:"dob"`
	Nationality float64 `json:"nationality"`
	Address     float64 `json:"address"`
}

// MatchResult is one candidate match produced by the matching engine.
type MatchResult struct {
	EntityRef       *SanctionsEntity `json:"entity"`
	MatchedName     string           `json:"matched_name"`
	MatchedDocument string           `json:"matched_document,omitempty"`
	MatchLayer      int              `json:"match_layer"`
	Confidence      Confidence       `json:"confidence"`
	Flags           []string         `json:"flags"`
	Recommendation  Recommendation   `json:"recommendation"`
}

// HasFlag reports whether flag is present on the result.
func (m *MatchResult) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends flag if not already present.
func (m *MatchResult) AddFlag(flag string) {
	if !m.HasFlag(flag) {
		m.Flags = append(m.Flags, flag)
	}
}

// ThresholdsUsed echoes the thresholds actually applied for a screening,
// for audit/debugging purposes.
type ThresholdsUsed struct {
	Name      int `json:"name"`
	ShortName int `json:"short_name"`
}

// ScreeningResponse is the full result of a single screening request.
type ScreeningResponse struct {
	ScreeningID       string         `json:"screening_id"`
	ScreeningDate     time.Time      `json:"screening_date"`
	Input             ScreeningInput `json:"input"`
	IsHit             bool           `json:"is_hit"`
	HitCount          int            `json:"hit_count"`
	Matches           []MatchResult  `json:"matches"`
	AlgorithmVersion  string         `json:"algorithm_version"`
	ThresholdsUsed    ThresholdsUsed `json:"thresholds_used"`
	ProcessingTimeMs  int64          `json:"processing_time_ms"`
}

// Flag constants emitted by the matching engine.
const (
	FlagDocumentExactMatch                    = "DOCUMENT_EXACT_MATCH"
	FlagDocumentMatch                         = "DOCUMENT_MATCH"
	FlagShortNameQuery                        = "SHORT_NAME_QUERY"
	FlagAdaptiveThresholdChinese              = "ADAPTIVE_THRESHOLD_CHINESE_NAME"
	FlagAdaptiveThresholdArabic               = "ADAPTIVE_THRESHOLD_ARABIC_NAME"
	FlagAdaptiveThresholdCyrillic             = "ADAPTIVE_THRESHOLD_CYRILLIC_NAME"
	FlagAdaptiveThresholdInitials             = "ADAPTIVE_THRESHOLD_INITIALS"
	FlagAdaptiveThresholdShort                = "ADAPTIVE_THRESHOLD_SHORT_NAME"
	FlagCommonName                            = "COMMON_NAME"
	FlagCommonNameRequiresSecondaryValidation = "COMMON_NAME_REQUIRES_SECONDARY_VALIDATION"
	FlagNoDocumentMatch                       = "NO_DOCUMENT_MATCH"
	FlagEntityMatch                           = "ENTITY_MATCH"
	FlagNationalityExactMatchInfo             = "NATIONALITY_EXACT_MATCH_INFO"
	FlagNationalitySubstringMatchInfo         = "NATIONALITY_SUBSTRING_MATCH_INFO"
	FlagPartialResult                         = "PARTIAL_RESULT"
)
