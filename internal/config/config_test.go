package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() config should validate, got: %v", err)
	}
}

func TestValidateRejectsNonAscendingRecommendationThresholds(t *testing.T) {
	c := Default()
	c.Matching.Recommendation.AutoClear = 90
	c.Matching.Recommendation.ManualReview = 85
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-ascending recommendation thresholds")
	}
}

func TestValidateRejectsBadNameLengthBounds(t *testing.T) {
	c := Default()
	c.InputValidation.NameMinLength = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for name_min_length == 0")
	}

	c = Default()
	c.InputValidation.NameMinLength = 50
	c.InputValidation.NameMaxLength = 10
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for name_min_length > name_max_length")
	}
}

func TestValidateRejectsZeroDocumentMaxLength(t *testing.T) {
	c := Default()
	c.InputValidation.DocumentMaxLength = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for document_max_length == 0")
	}
}

func TestLoadWithMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load with missing file should not error: %v", err)
	}
	if cfg.Matching.BaseThreshold != Default().Matching.BaseThreshold {
		t.Fatalf("expected default base threshold, got %d", cfg.Matching.BaseThreshold)
	}
}
