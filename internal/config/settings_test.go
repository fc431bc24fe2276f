package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got error %v", err)
	}
	if settings.CheckInterval != DefaultCheckInterval {
		t.Fatalf("expected default check interval, got %v", settings.CheckInterval)
	}
	if !settings.API.Enabled || settings.API.Port != DefaultAPIPort {
		t.Fatalf("expected default API settings, got %+v", settings.API)
	}
	if settings.Upload.TokenFile != DefaultTokenFile {
		t.Fatalf("expected default token file, got %q", settings.Upload.TokenFile)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	settings, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults, got error %v", err)
	}
	if settings.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", settings.LogLevel)
	}
}

func TestLoadOverlaysFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reeldrop.yaml")
	payload := `watch_dir: /recordings
check_interval_seconds: 60
log_level: debug
api:
  enabled: false
  port: 9000
upload:
  enabled: false
  token_file: /secrets/token.json
`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if settings.WatchDir != "/recordings" {
		t.Fatalf("expected watch dir /recordings, got %q", settings.WatchDir)
	}
	if settings.CheckInterval != 60*time.Second {
		t.Fatalf("expected 60s interval, got %v", settings.CheckInterval)
	}
	if settings.LogLevel != "debug" {
		t.Fatalf("expected debug level, got %q", settings.LogLevel)
	}
	if settings.API.Enabled || settings.API.Port != 9000 {
		t.Fatalf("unexpected API settings: %+v", settings.API)
	}
	if settings.Upload.Enabled || settings.Upload.TokenFile != "/secrets/token.json" {
		t.Fatalf("unexpected upload settings: %+v", settings.Upload)
	}
}

func TestLoadPartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reeldrop.yaml")
	if err := os.WriteFile(path, []byte("check_interval_seconds: 10\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if settings.CheckInterval != 10*time.Second {
		t.Fatalf("expected 10s interval, got %v", settings.CheckInterval)
	}
	if settings.API.Port != DefaultAPIPort {
		t.Fatalf("expected default API port, got %d", settings.API.Port)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reeldrop.yaml")
	if err := os.WriteFile(path, []byte("watch_dir: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}
