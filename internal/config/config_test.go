package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("output: plain\nretries: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DEFI_AGENT_OUTPUT", "json")
	flags := GlobalFlags{ConfigPath: configPath, Plain: true, Retries: 5}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}
}

func TestLoadMutuallyExclusiveFlags(t *testing.T) {
	if _, err := Load(GlobalFlags{JSON: true, Plain: true}); err == nil {
		t.Fatal("expected error with --json and --plain")
	}
	if _, err := Load(GlobalFlags{Mock: true, Real: true}); err == nil {
		t.Fatal("expected error with --mock and --real")
	}
}

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(GlobalFlags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.ChainID != DefaultChainID {
		t.Fatalf("default chain id: %d", settings.ChainID)
	}
	if !settings.MockMode {
		t.Fatal("expected mock mode by default")
	}
	if settings.BackendURL != DefaultBackendURL {
		t.Fatalf("default backend url: %q", settings.BackendURL)
	}
	if settings.Timeout != 10*time.Second {
		t.Fatalf("default timeout: %v", settings.Timeout)
	}
}

func TestLoadBackendAndChainOverrides(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	yaml := "backend:\n  url: https://file.example/\nchain_id: 1\nmock: false\nsimulation:\n  delay: 0s\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DEFI_AGENT_BACKEND_URL", "https://env.example/")

	settings, err := Load(GlobalFlags{ConfigPath: configPath, ChainID: 11155111})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.BackendURL != "https://env.example" {
		t.Fatalf("expected env to win over file, got %q", settings.BackendURL)
	}
	if settings.ChainID != 11155111 {
		t.Fatalf("expected flag chain id, got %d", settings.ChainID)
	}
	if settings.MockMode {
		t.Fatal("expected mock disabled by file config")
	}
	if settings.MockDelay != 0 {
		t.Fatalf("expected zero simulation delay, got %v", settings.MockDelay)
	}
}
