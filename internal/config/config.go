package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for chatstitch.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Partner  PartnerConfig  `json:"partner"`
	Cleaning CleaningConfig `json:"cleaning"`
	Capture  CaptureConfig  `json:"capture"`
	Archive  ArchiveConfig  `json:"archive"`
}

type GeneralConfig struct {
	DataRoot     string `json:"dataRoot"`     // root of raw capture batches (batch1/, batch2/, ...)
	ProcessedDir string `json:"processedDir"` // where stitched and cleaned outputs are written
	PartGlob     string `json:"partGlob"`     // filename pattern for part files inside a batch
	LogLevel     string `json:"logLevel"`
	LogFile      string `json:"logFile,omitempty"`
}

type PartnerConfig struct {
	DisplayName string `json:"displayName"` // conversation partner's name as Messenger renders it
}

type CleaningConfig struct {
	RulesFile      string `json:"rulesFile,omitempty"` // optional YAML noise-rules overlay
	NoiseThreshold int    `json:"noiseThreshold"`      // URL repeat count that marks a UI asset
}

type CaptureConfig struct {
	URL           string `json:"url"`        // conversation URL
	ProfileDir    string `json:"profileDir"` // Chrome user data directory
	Headless      bool   `json:"headless"`
	PartSize      int    `json:"partSize"`      // snapshots per part file
	MaxParts      int    `json:"maxParts"`      // stop after this many parts
	ScrollPauseMs int    `json:"scrollPauseMs"` // wait between scrolls
}

type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

// DefaultConfigDir returns the default config directory (~/.chatstitch).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatstitch"
	}
	return filepath.Join(home, ".chatstitch")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.DataRoot = expandPath(cfg.General.DataRoot)
	cfg.General.ProcessedDir = expandPath(cfg.General.ProcessedDir)
	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Cleaning.RulesFile = expandPath(cfg.Cleaning.RulesFile)
	cfg.Capture.ProfileDir = expandPath(cfg.Capture.ProfileDir)
	cfg.Archive.DBPath = expandPath(cfg.Archive.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.General.PartGlob == "" {
		errs = append(errs, "general.partGlob must not be empty")
	}

	if cfg.Partner.DisplayName == "" {
		errs = append(errs, "partner.displayName must not be empty")
	}

	if cfg.Cleaning.NoiseThreshold < 1 {
		errs = append(errs, "cleaning.noiseThreshold must be >= 1")
	}

	if cfg.Capture.PartSize < 1 {
		errs = append(errs, "capture.partSize must be >= 1")
	}
	if cfg.Capture.MaxParts < 1 {
		errs = append(errs, "capture.maxParts must be >= 1")
	}
	if cfg.Capture.ScrollPauseMs < 0 {
		errs = append(errs, "capture.scrollPauseMs must be >= 0")
	}

	if cfg.Archive.Enabled && cfg.Archive.DBPath == "" {
		errs = append(errs, "archive.dbPath is required when archive is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func expandPath(path string) string {
	return ExpandPath(path)
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
