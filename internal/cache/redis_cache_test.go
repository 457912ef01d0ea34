package cache

import (
	"context"
	"testing"

	"sanctions-screening/internal/config"
)

func TestNewReturnsNilWhenCacheAddrUnset(t *testing.T) {
	cfg := config.Default()
	cfg.Data.CacheAddr = ""

	c, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected a nil cache when cache_addr is unset")
	}
}

func TestNewFailsFastOnUnreachableAddr(t *testing.T) {
	cfg := config.Default()
	cfg.Data.CacheAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected a connection error for an unreachable redis address")
	}
}

func TestCacheKeyPrefixing(t *testing.T) {
	c := &Cache{prefix: "sanctions-screening"}
	if got := c.key("common_names"); got != "sanctions-screening:common_names" {
		t.Fatalf("unexpected key: %s", got)
	}
}
