package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HertzAddr != ":8080" {
		t.Errorf("unexpected hertz addr %q", cfg.HertzAddr)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Errorf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.KeepAliveInterval != 30*time.Second {
		t.Errorf("unexpected keep-alive interval %v", cfg.KeepAliveInterval)
	}
	if cfg.SubscriberBuffer != 32 {
		t.Errorf("unexpected subscriber buffer %d", cfg.SubscriberBuffer)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WATCHRELAY_HTTP_ADDR", ":9999")
	t.Setenv("WATCHRELAY_KEEP_ALIVE_INTERVAL", "5s")
	t.Setenv("WATCHRELAY_SUBSCRIBER_BUFFER", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("override not applied: %q", cfg.HTTPAddr)
	}
	if cfg.KeepAliveInterval != 5*time.Second {
		t.Errorf("override not applied: %v", cfg.KeepAliveInterval)
	}
	if cfg.SubscriberBuffer != 8 {
		t.Errorf("override not applied: %d", cfg.SubscriberBuffer)
	}
}
