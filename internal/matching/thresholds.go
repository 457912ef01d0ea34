package matching

import (
	"strings"
	"unicode"

	"sanctions-screening/internal/models"
)

// isShortName implements the adaptive short-name threshold predicate:
// an input name is short when it has ≤ 2 whitespace-separated
// words and total length < 10, or any word has length ≤ 2.
func isShortName(name string) bool {
	words := strings.Fields(name)
	if len(words) <= 2 && len([]rune(name)) < 10 {
		return true
	}
	for _, w := range words {
		if len([]rune(w)) <= 2 {
			return true
		}
	}
	return false
}

// scriptRatio reports the fraction of letter runes in s that fall
// within [lo, hi].
func scriptRatio(s string, lo, hi rune) float64 {
	letters, inRange := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r >= lo && r <= hi {
			inRange++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(inRange) / float64(letters)
}

// looksLikeLatinInitials matches an "only letters plus dots, ≤ 4
// letters, all uppercase" rule, e.g. "J.R.R." or "JFK".
func looksLikeLatinInitials(s string) bool {
	letterCount := 0
	for _, r := range s {
		switch {
		case r == '.':
			continue
		case unicode.IsUpper(r) && unicode.IsLetter(r):
			letterCount++
		default:
			return false
		}
	}
	return letterCount > 0 && letterCount <= 4
}

// adaptiveThreshold returns the threshold to use in place of
// name_threshold for a short input name, and the flag (if any) the
// engine should attach describing which adaptive rule fired.
func adaptiveThreshold(rawName string, shortNameThreshold int) (int, string) {
	switch {
	case scriptRatio(rawName, 0x4E00, 0x9FFF) > 0.5:
		return 85, models.FlagAdaptiveThresholdChinese
	case scriptRatio(rawName, 0x0600, 0x06FF) > 0.5:
		return 90, models.FlagAdaptiveThresholdArabic
	case scriptRatio(rawName, 0x0400, 0x04FF) > 0.5:
		return 90, models.FlagAdaptiveThresholdCyrillic
	case looksLikeLatinInitials(rawName):
		return 98, models.FlagAdaptiveThresholdInitials
	default:
		return shortNameThreshold, models.FlagAdaptiveThresholdShort
	}
}

// matchLayer assigns the 1-4 match layer given scores already on a
// 0-100 scale and whether a nationality flag was raised.
func matchLayer(docScore, nameScore, dobScore float64, nationalityFlagged bool, highConfidence, moderateMatch int) int {
	switch {
	case docScore == 100:
		return 1
	case nameScore >= float64(highConfidence) && (dobScore >= 60 || nationalityFlagged):
		return 2
	case nameScore >= float64(highConfidence):
		return 3
	case nameScore >= float64(moderateMatch):
		return 3
	default:
		return 4
	}
}

// recommendationFor maps an overall score to a disposition
// recommendation using the configured reporting thresholds.
func recommendationFor(overall float64, autoEscalate, manualReview, autoClear int) models.Recommendation {
	switch {
	case overall >= float64(autoEscalate):
		return models.AutoEscalate
	case overall >= float64(manualReview):
		return models.ManualReview
	case overall >= float64(autoClear):
		return models.LowConfidenceReview
	default:
		return models.AutoClear
	}
}
