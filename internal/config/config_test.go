package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.ProbeTimeout != 8*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
addr = "127.0.0.1:8080"
static_dir = "/srv/ui"
probe_timeout = "12s"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.StaticDir != "/srv/ui" {
		t.Errorf("StaticDir = %q", cfg.StaticDir)
	}
	if cfg.ProbeTimeout != 12*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}
	if cfg.SearchTimeout != DefaultSearchTimeout {
		t.Errorf("SearchTimeout = %v, want default", cfg.SearchTimeout)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`probe_timeout = "soon"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted invalid duration")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, ":9999")
	t.Setenv(EnvProbeTimeout, "15s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.ProbeTimeout != 15*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}
}

func TestEnvInvalidTimeoutKeepsPrevious(t *testing.T) {
	t.Setenv(EnvProbeTimeout, "100ms") // below the 1s floor

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProbeTimeout != DefaultProbeTimeout {
		t.Errorf("ProbeTimeout = %v, want default kept", cfg.ProbeTimeout)
	}
}
