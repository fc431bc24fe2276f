package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCheckInterval = 300 * time.Second
	DefaultAPIPort       = 7487
	DefaultTokenFile     = "token.json"
)

// Settings is the resolved runtime configuration: defaults overlaid with the
// optional config file. Env and flag overrides are applied by the caller.
type Settings struct {
	WatchDir      string
	CheckInterval time.Duration
	LogLevel      string
	API           APISettings
	Upload        UploadSettings
}

type APISettings struct {
	Enabled   bool
	Port      int
	AuthToken string
}

type UploadSettings struct {
	Enabled   bool
	TokenFile string
}

type fileSettings struct {
	WatchDir             *string `yaml:"watch_dir"`
	CheckIntervalSeconds *int    `yaml:"check_interval_seconds"`
	LogLevel             *string `yaml:"log_level"`
	API                  *struct {
		Enabled   *bool   `yaml:"enabled"`
		Port      *int    `yaml:"port"`
		AuthToken *string `yaml:"auth_token"`
	} `yaml:"api"`
	Upload *struct {
		Enabled   *bool   `yaml:"enabled"`
		TokenFile *string `yaml:"token_file"`
	} `yaml:"upload"`
}

// Defaults returns the baseline settings before any file or env overrides.
func Defaults() Settings {
	return Settings{
		WatchDir:      DefaultWatchDir(),
		CheckInterval: DefaultCheckInterval,
		LogLevel:      "info",
		API: APISettings{
			Enabled: true,
			Port:    DefaultAPIPort,
		},
		Upload: UploadSettings{
			Enabled:   true,
			TokenFile: DefaultTokenFile,
		},
	}
}

// DefaultWatchDir is the platform videos directory, falling back to the
// working directory when the home directory cannot be resolved.
func DefaultWatchDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Videos")
}

// Load reads settings from an optional YAML file. A missing file is not an
// error; a malformed one is.
func Load(path string) (Settings, error) {
	settings := Defaults()
	if strings.TrimSpace(path) == "" {
		return settings, nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	overlay := fileSettings{}
	if err := yaml.Unmarshal(payload, &overlay); err != nil {
		return Settings{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if overlay.WatchDir != nil && strings.TrimSpace(*overlay.WatchDir) != "" {
		settings.WatchDir = strings.TrimSpace(*overlay.WatchDir)
	}
	if overlay.CheckIntervalSeconds != nil && *overlay.CheckIntervalSeconds > 0 {
		settings.CheckInterval = time.Duration(*overlay.CheckIntervalSeconds) * time.Second
	}
	if overlay.LogLevel != nil && strings.TrimSpace(*overlay.LogLevel) != "" {
		settings.LogLevel = strings.TrimSpace(*overlay.LogLevel)
	}
	if overlay.API != nil {
		if overlay.API.Enabled != nil {
			settings.API.Enabled = *overlay.API.Enabled
		}
		if overlay.API.Port != nil && *overlay.API.Port > 0 {
			settings.API.Port = *overlay.API.Port
		}
		if overlay.API.AuthToken != nil {
			settings.API.AuthToken = strings.TrimSpace(*overlay.API.AuthToken)
		}
	}
	if overlay.Upload != nil {
		if overlay.Upload.Enabled != nil {
			settings.Upload.Enabled = *overlay.Upload.Enabled
		}
		if overlay.Upload.TokenFile != nil && strings.TrimSpace(*overlay.Upload.TokenFile) != "" {
			settings.Upload.TokenFile = strings.TrimSpace(*overlay.Upload.TokenFile)
		}
	}
	return settings, nil
}
