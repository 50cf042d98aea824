package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HeatPump.Addr() != "192.168.86.28:8889" {
		t.Errorf("heat pump addr = %q", cfg.HeatPump.Addr())
	}
	if cfg.HeatPump.PollInterval != 10*time.Second {
		t.Errorf("poll interval = %v", cfg.HeatPump.PollInterval)
	}
	if cfg.History.SampleInterval != 10*time.Minute || cfg.History.Retention != 24*time.Hour {
		t.Errorf("history = %+v", cfg.History)
	}
	if got := cfg.ControllerIDs(); len(got) != 2 || got[0] != "rez" || got[1] != "etage" {
		t.Errorf("controller ids = %v", got)
	}
	if cfg.Rooms.MaxStale != 0 {
		t.Errorf("max stale = %v, want unlimited", cfg.Rooms.MaxStale)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAC_HOST", "10.0.0.5")
	t.Setenv("PAC_PORT", "9000")
	t.Setenv("POLL_INTERVAL", "2500")
	t.Setenv("NUSSBAUM_ETAGE_HOST", "10.0.0.7")
	t.Setenv("ROOMS_MAX_STALE", "15m")
	t.Setenv("PORT", "8081")
	t.Setenv("PAC_SIMULATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HeatPump.Addr() != "10.0.0.5:9000" {
		t.Errorf("addr = %q", cfg.HeatPump.Addr())
	}
	if cfg.HeatPump.PollInterval != 2500*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.HeatPump.PollInterval)
	}
	if cfg.Rooms.Controllers[1].Host != "10.0.0.7" {
		t.Errorf("etage host = %q", cfg.Rooms.Controllers[1].Host)
	}
	if cfg.Rooms.MaxStale != 15*time.Minute {
		t.Errorf("max stale = %v", cfg.Rooms.MaxStale)
	}
	if cfg.Server.Port != "8081" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if !cfg.HeatPump.Simulate {
		t.Errorf("simulate = false, want true")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte("heatpump:\n  host: pac.local\nrooms:\n  rez:\n    host: rez.local\nmqtt:\n  enabled: true\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), body, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HeatPump.Host != "pac.local" || cfg.Rooms.Controllers[0].Host != "rez.local" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !cfg.MQTT.Enabled {
		t.Errorf("mqtt should be enabled")
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(t.TempDir()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("PAC_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}
