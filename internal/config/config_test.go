package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for logLevel=verbose")
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		cfg := Defaults()
		cfg.General.LogLevel = level
		if err := Validate(cfg); err != nil {
			t.Fatalf("logLevel %q should be valid: %v", level, err)
		}
	}
}

func TestValidate_EmptyPartGlob(t *testing.T) {
	cfg := Defaults()
	cfg.General.PartGlob = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty partGlob")
	}
}

func TestValidate_EmptyPartnerName(t *testing.T) {
	cfg := Defaults()
	cfg.Partner.DisplayName = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty partner name")
	}
}

func TestValidate_InvalidNoiseThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.Cleaning.NoiseThreshold = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for noiseThreshold=0")
	}
}

func TestValidate_InvalidCaptureLimits(t *testing.T) {
	cfg := Defaults()
	cfg.Capture.PartSize = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for partSize=0")
	}

	cfg = Defaults()
	cfg.Capture.MaxParts = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxParts=0")
	}

	cfg = Defaults()
	cfg.Capture.ScrollPauseMs = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative scrollPauseMs")
	}
}

func TestValidate_ArchiveNeedsPath(t *testing.T) {
	cfg := Defaults()
	cfg.Archive.Enabled = true
	cfg.Archive.DBPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled archive without dbPath")
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := Defaults()
	original.Partner.DisplayName = "Alice"

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Partner.DisplayName != "Alice" {
		t.Fatalf("expected 'Alice', got %q", loaded.Partner.DisplayName)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json}"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_ValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	// Invalid: noiseThreshold=0
	content := `{
		"cleaning": {
			"noiseThreshold": 0
		}
	}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgFile)
	if err == nil {
		t.Fatal("expected validation error for noiseThreshold=0")
	}
}

// --- Accessor ---

func TestGetByPath_ValidPaths(t *testing.T) {
	cfg := Defaults()

	val, err := GetByPath(cfg, "partner.displayName")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "Partner" {
		t.Fatalf("expected 'Partner', got %v", val)
	}
}

func TestGetByPath_InvalidPath(t *testing.T) {
	cfg := Defaults()
	_, err := GetByPath(cfg, "nonexistent.path")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestSetByPath_ValidPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "partner.displayName", "Alice"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Partner.DisplayName != "Alice" {
		t.Fatalf("expected 'Alice', got %q", cfg.Partner.DisplayName)
	}
}

func TestSetByPath_BoolConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "capture.headless", "true"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if !cfg.Capture.Headless {
		t.Fatal("expected capture.headless=true")
	}
}

func TestSetByPath_IntConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "cleaning.noiseThreshold", "40"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if cfg.Cleaning.NoiseThreshold != 40 {
		t.Fatalf("expected 40, got %d", cfg.Cleaning.NoiseThreshold)
	}
}

// --- ListPaths ---

func TestListPaths_ReturnsAllLeaves(t *testing.T) {
	cfg := Defaults()
	paths := ListPaths(cfg)
	if len(paths) == 0 {
		t.Fatal("expected non-empty paths")
	}

	// Check some known paths exist
	for _, expected := range []string{"general.dataRoot", "general.logLevel", "cleaning.noiseThreshold"} {
		if _, ok := paths[expected]; !ok {
			t.Errorf("missing expected path: %s", expected)
		}
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_SimpleSubstitution(t *testing.T) {
	t.Setenv("TEST_PARTNER_NAME", "Alice")
	result := ExpandEnvVars(`{"displayName": "${TEST_PARTNER_NAME}"}`)
	expected := `{"displayName": "Alice"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DefaultValue(t *testing.T) {
	// Ensure the var is unset
	os.Unsetenv("NONEXISTENT_VAR_12345")
	result := ExpandEnvVars(`{"threshold": "${NONEXISTENT_VAR_12345:-25}"}`)
	expected := `{"threshold": "25"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_SetVarOverridesDefault(t *testing.T) {
	t.Setenv("MY_THRESHOLD", "40")
	result := ExpandEnvVars(`{"threshold": "${MY_THRESHOLD:-25}"}`)
	expected := `{"threshold": "40"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_MultipleVars(t *testing.T) {
	t.Setenv("HOST", "localhost")
	t.Setenv("PORT", "3000")
	result := ExpandEnvVars(`"${HOST}:${PORT}"`)
	expected := `"localhost:3000"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_UnsetVarNoDefault_KeepsOriginal(t *testing.T) {
	os.Unsetenv("TOTALLY_UNSET_VAR_XYZ")
	result := ExpandEnvVars(`"${TOTALLY_UNSET_VAR_XYZ}"`)
	expected := `"${TOTALLY_UNSET_VAR_XYZ}"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_EmptyVarUsesDefault(t *testing.T) {
	t.Setenv("EMPTY_VAR", "")
	result := ExpandEnvVars(`"${EMPTY_VAR:-fallback}"`)
	expected := `"fallback"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_NoVarsInInput(t *testing.T) {
	input := `{"key": "value", "number": 42}`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change, got %q", result)
	}
}

func TestExpandEnvVars_DollarSignWithoutBraces(t *testing.T) {
	input := `"$HOME is not substituted"`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change for bare $VAR, got %q", result)
	}
}

func TestLoad_WithEnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_CHATSTITCH_DATA", "/tmp/test-data")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{
		"general": {
			"dataRoot": "${TEST_CHATSTITCH_DATA}",
			"partGlob": "messenger_row_part_*.json",
			"logLevel": "info"
		}
	}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.General.DataRoot != "/tmp/test-data" {
		t.Fatalf("expected dataRoot '/tmp/test-data', got %q", cfg.General.DataRoot)
	}
}

// --- Defaults ---

func TestDefaults_ReturnsValidConfig(t *testing.T) {
	cfg := Defaults()
	if cfg == nil {
		t.Fatal("defaults returned nil")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if cfg.General.DataRoot == "" {
		t.Fatal("dataRoot should not be empty")
	}
	if cfg.Cleaning.NoiseThreshold != 25 {
		t.Fatalf("default noise threshold should be 25, got %d", cfg.Cleaning.NoiseThreshold)
	}
}
