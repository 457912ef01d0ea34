// Package validation implements InputValidator: it validates a
// ScreeningInput before any matching work begins, returning the first
// failing check per an ordered table of rules.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
)

var (
	dobPattern          = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)
	documentPattern     = regexp.MustCompile(`^[A-Za-z0-9\-\s.]+$`)
	allowedNonUnicodeRe = regexp.MustCompile(`^[A-Za-zÀ-ÿ\s\-\.',]+$`)
)

// InputValidator checks ScreeningInput values against a Config before
// the MatchingEngine runs.
type InputValidator struct {
	cfg    *config.Config
	logger *observability.Logger
}

// New constructs an InputValidator bound to cfg. logger may be nil, in
// which case a development logger is used.
func New(cfg *config.Config, logger *observability.Logger) *InputValidator {
	if logger == nil {
		logger = observability.NewLogger(true)
	}
	return &InputValidator{cfg: cfg, logger: logger}
}

// Validate runs the ordered checks in turn and returns the first
// failure, or nil if the input is acceptable.
func (v *InputValidator) Validate(input models.ScreeningInput) *models.CoreError {
	if err := v.checkNameLength(input); err != nil {
		v.logReject(err, input.Name)
		return err
	}
	if err := v.checkBlockedCharacters(input); err != nil {
		v.logReject(err, input.Name)
		return err
	}
	if err := v.checkControlCharacters(input); err != nil {
		v.logReject(err, input.Name)
		return err
	}
	if err := v.checkUnicodeFormat(input); err != nil {
		v.logReject(err, input.Name)
		return err
	}
	if err := v.checkDOBFormat(input); err != nil {
		v.logReject(err, input.DateOfBirth)
		return err
	}
	if err := v.checkDocumentFormat(input); err != nil {
		v.logReject(err, input.DocumentNumber)
		return err
	}
	return nil
}

func (v *InputValidator) logReject(err *models.CoreError, offendingValue string) {
	v.logger.Security(string(err.Code), map[string]interface{}{
		"field":   err.Field,
		"excerpt": offendingValue,
	})
}

// 1-2: name length bounds.
func (v *InputValidator) checkNameLength(input models.ScreeningInput) *models.CoreError {
	trimmed := strings.TrimSpace(input.Name)
	if utf8.RuneCountInString(trimmed) < v.cfg.InputValidation.NameMinLength {
		return models.NewValidationError(models.ErrNameTooShort, "name",
			"name is shorter than the minimum allowed length",
			"provide a name with at least the minimum required number of characters")
	}
	if utf8.RuneCountInString(input.Name) > v.cfg.InputValidation.NameMaxLength {
		return models.NewValidationError(models.ErrNameTooLong, "name",
			"name exceeds the maximum allowed length",
			"shorten the name or split into separate screening requests")
	}
	return nil
}

// 3: blocked characters.
func (v *InputValidator) checkBlockedCharacters(input models.ScreeningInput) *models.CoreError {
	blocked := v.cfg.InputValidation.BlockedCharacters
	if blocked == "" {
		return nil
	}
	for _, r := range input.Name {
		if strings.ContainsRune(blocked, r) {
			return models.NewValidationError(models.ErrBlockedCharacters, "name",
				"name contains a character that is not permitted",
				"remove special characters such as <>{}[]|\\;`$ from the name")
		}
	}
	return nil
}

// 4: control/format/surrogate/unassigned characters (Unicode category C*).
func (v *InputValidator) checkControlCharacters(input models.ScreeningInput) *models.CoreError {
	for _, r := range input.Name {
		if isCategoryC(r) {
			return models.NewValidationError(models.ErrControlCharacter, "name",
				"name contains a control or non-printable character",
				"remove control characters and resubmit")
		}
	}
	return nil
}

// isCategoryC reports whether r belongs to a Unicode general category
// beginning with "C" (control, format, surrogate, private-use, or
// unassigned, i.e. in no category of the unicode package's tables).
func isCategoryC(r rune) bool {
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r) ||
		unicode.Is(unicode.Co, r) || unicode.Is(unicode.Cs, r) ||
		!unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z, unicode.C)
}

// 5: when unicode names are disallowed, restrict to a Latin-ish charset.
func (v *InputValidator) checkUnicodeFormat(input models.ScreeningInput) *models.CoreError {
	if v.cfg.InputValidation.AllowUnicodeNames {
		return nil
	}
	if !allowedNonUnicodeRe.MatchString(input.Name) {
		return models.NewValidationError(models.ErrInvalidFormat, "name",
			"name contains characters outside the allowed Latin character set",
			"use only letters, spaces, hyphens, periods, apostrophes, and commas")
	}
	return nil
}

// 6: date-of-birth format.
func (v *InputValidator) checkDOBFormat(input models.ScreeningInput) *models.CoreError {
	if input.DateOfBirth == "" {
		return nil
	}
	if !dobPattern.MatchString(input.DateOfBirth) {
		return models.NewValidationError(models.ErrInvalidDOBFormat, "date_of_birth",
			"date of birth is not in YYYY, YYYY-MM, or YYYY-MM-DD format",
			"provide the date of birth as YYYY, YYYY-MM, or YYYY-MM-DD")
	}
	return nil
}

// 7: document number length and format.
func (v *InputValidator) checkDocumentFormat(input models.ScreeningInput) *models.CoreError {
	if input.DocumentNumber == "" {
		return nil
	}
	if len(input.DocumentNumber) > v.cfg.InputValidation.DocumentMaxLength {
		return models.NewValidationError(models.ErrDocumentTooLong, "document_number",
			"document number exceeds the maximum allowed length",
			"shorten the document number")
	}
	if !documentPattern.MatchString(input.DocumentNumber) {
		return models.NewValidationError(models.ErrInvalidDocumentFormat, "document_number",
			"document number contains characters outside letters, digits, hyphens, spaces, and periods",
			"remove special characters from the document number")
	}
	return nil
}
