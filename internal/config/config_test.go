package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Backend.Mode != BackendSim {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Offer.Window != 20*time.Second || cfg.Location.TransitInterval != 2*time.Second {
		t.Fatalf("unexpected durations %v %v", cfg.Offer.Window, cfg.Location.TransitInterval)
	}
	if cfg.Backend.MaxAttempts != 3 || cfg.Backend.Timeout != 30*time.Second {
		t.Fatalf("unexpected backend defaults %+v", cfg.Backend)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Log.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COURIER_BACKEND_MODE", "http")
	t.Setenv("COURIER_OFFER_WINDOW", "5s")
	t.Setenv("COURIER_EVENTS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Mode != BackendHTTP || cfg.Offer.Window != 5*time.Second {
		t.Fatalf("env not applied: %+v %+v", cfg.Backend, cfg.Offer)
	}
	if len(cfg.Events.Kafka.Brokers) != 2 || cfg.Events.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Events.Kafka.Brokers)
	}
	if cfg.AI.GeminiKey != "g-key" {
		t.Fatalf("expected legacy GEMINI_API_KEY to apply, got %q", cfg.AI.GeminiKey)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	body := "partner:\n  id: p-42\noffer:\n  demo: false\nlocation:\n  report_min_meters: 25\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Partner.ID != "p-42" || cfg.Offer.Demo || cfg.Location.ReportMinMeters != 25 {
		t.Fatalf("file not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COURIER_AUTH_MODE", "jwt")
	if _, err := Load(""); err == nil {
		t.Fatal("expected jwt mode without secret to fail")
	}
	t.Setenv("COURIER_AUTH_JWT_SECRET", "s3cret")
	if _, err := Load(""); err != nil {
		t.Fatalf("expected valid jwt config, got %v", err)
	}
	t.Setenv("COURIER_BACKEND_MODE", "grpc")
	if _, err := Load(""); err == nil {
		t.Fatal("expected unknown backend mode to fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
