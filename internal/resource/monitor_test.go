package resource

import (
	"testing"

	"sanctions-screening/internal/config"
)

func TestReadReturnsPositiveTotals(t *testing.T) {
	snap, err := Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.HostTotalBytes == 0 {
		t.Fatal("expected a non-zero host total memory reading")
	}
}

func TestCheckIngestAllowedWithGenerousLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Performance.MemoryLimitBytes = 1 << 40 // 1 TiB, should never trip in CI
	if err := CheckIngestAllowed(cfg); err != nil {
		t.Fatalf("unexpected refusal: %v", err)
	}
}

func TestCheckIngestAllowedWithZeroLimitDisablesGate(t *testing.T) {
	cfg := config.Default()
	cfg.Performance.MemoryLimitBytes = 0
	if err := CheckIngestAllowed(cfg); err != nil {
		t.Fatalf("expected the gate to be disabled when memory_limit_bytes is 0, got %v", err)
	}
}
