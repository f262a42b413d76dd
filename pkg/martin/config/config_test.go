package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARTIN_ADDR", "")
	t.Setenv("MARTIN_MODEL", "")
	t.Setenv("MARTIN_MAX_TOOL_STEPS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":3001" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.MaxToolSteps != 0 {
		t.Errorf("MaxToolSteps = %d", cfg.MaxToolSteps)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MARTIN_ADDR", ":9000")
	t.Setenv("MARTIN_MAX_TOOL_STEPS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.MaxToolSteps != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadStepCount(t *testing.T) {
	t.Setenv("MARTIN_MAX_TOOL_STEPS", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric step count")
	}

	t.Setenv("MARTIN_MAX_TOOL_STEPS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero step count")
	}
}
