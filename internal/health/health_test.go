package health

import (
	"context"
	"testing"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
)

func TestCollectDegradedWithoutAPIKey(t *testing.T) {
	cfg := &config.Config{
		Model: config.ModelConfig{
			ModelName:      "exaone-3.5-7.8b-instruct",
			TimeoutSeconds: 10,
			MaxRetries:     2,
		},
		CacheStore: config.CacheStoreConfig{Enabled: false},
	}

	resp := Collect(context.Background(), cfg, kvstore.NewMemory(), false)
	if resp.Status != "degraded" {
		t.Fatalf("expected degraded status, got %s", resp.Status)
	}
	if resp.Components["model"].Status != "degraded" {
		t.Fatalf("expected model degraded, got %s", resp.Components["model"].Status)
	}
	if resp.Components["cache_store"].Status != "ok" {
		t.Fatalf("expected cache_store ok, got %s", resp.Components["cache_store"].Status)
	}
}

func TestCollectOKWithAPIKey(t *testing.T) {
	cfg := &config.Config{
		Model:      config.ModelConfig{APIKey: "hf_test", ModelName: "exaone-3.5-7.8b-instruct"},
		CacheStore: config.CacheStoreConfig{Enabled: true},
	}

	resp := Collect(context.Background(), cfg, kvstore.NewMemory(), true)
	if resp.Status != "ok" {
		t.Fatalf("expected ok status, got %s", resp.Status)
	}
	if !resp.Components["cache_store"].Detail["store_connected"].(bool) {
		t.Fatalf("expected cache_store connected on deep check")
	}
}
