// Copyright 2025 Shadow Atlas Contributors

package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxConcurrency != 8 {
		t.Errorf("expected default MaxConcurrency 8, got %d", cfg.MaxConcurrency)
	}
	if cfg.JobTimeout != 6*time.Hour {
		t.Errorf("expected default JobTimeout 6h, got %s", cfg.JobTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := &Config{MaxConcurrency: 1, DefaultQualityThreshold: 150, DatabasePath: "x.db"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for out-of-range threshold")
	}
}

func TestLoadProvidersConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/providers.yaml"
	content := `
municipal:
  - place_fips: "3651000"
    query_url: "https://example.com/arcgis/rest/services/NYC/FeatureServer/0/query"
    geoid_field: "BoroCD"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadProvidersConfig(path)
	if err != nil {
		t.Fatalf("LoadProvidersConfig: %v", err)
	}
	if cfg.TigerBaseURL == "" {
		t.Error("expected default tiger base URL to be applied")
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected default max attempts 3, got %d", cfg.Retry.MaxAttempts)
	}
	if len(cfg.Municipal) != 1 || cfg.Municipal[0].PlaceFIPS != "3651000" {
		t.Fatalf("unexpected municipal config: %+v", cfg.Municipal)
	}
}

func TestDurationUnmarshalRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/providers.yaml"
	content := `
retry:
  initial_interval: "not-a-duration"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadProvidersConfig(path); err == nil {
		t.Error("expected parse error for invalid duration")
	}
}
