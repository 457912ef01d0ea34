package fuzzy

import "testing"

func TestTokenSortRatioIdentical(t *testing.T) {
	if got := TokenSortRatio("john smith", "john smith"); got != 1.0 {
		t.Fatalf("expected 1.0, got %f", got)
	}
}

func TestTokenSortRatioIgnoresWordOrder(t *testing.T) {
	got := TokenSortRatio("john robert smith", "smith john robert")
	if got != 1.0 {
		t.Fatalf("expected reordered tokens to score 1.0, got %f", got)
	}
}

func TestTokenSortRatioPartialMatch(t *testing.T) {
	got := TokenSortRatio("john smith", "jon smith")
	if got <= 0.7 || got >= 1.0 {
		t.Fatalf("expected a high but non-perfect score, got %f", got)
	}
}

func TestTokenSortRatioUnrelated(t *testing.T) {
	got := TokenSortRatio("john smith", "zzz qqq")
	if got > 0.4 {
		t.Fatalf("expected a low score for unrelated names, got %f", got)
	}
}

func TestTokenSortRatioEmptyInputs(t *testing.T) {
	if got := TokenSortRatio("", ""); got != 1.0 {
		t.Fatalf("expected both-empty to score 1.0, got %f", got)
	}
	if got := TokenSortRatio("john", ""); got != 0.0 {
		t.Fatalf("expected one-empty to score 0.0, got %f", got)
	}
}

func TestPartialRatioMatchesSingleToken(t *testing.T) {
	got := PartialRatio("smith", "john robert smith")
	if got != 1.0 {
		t.Fatalf("expected exact single-token match to score 1.0, got %f", got)
	}
}

func TestTokenSortRatioMultiByteRunes(t *testing.T) {
	got := TokenSortRatio("李 明", "明 李")
	if got != 1.0 {
		t.Fatalf("expected reordered CJK tokens to score 1.0, got %f", got)
	}
}
