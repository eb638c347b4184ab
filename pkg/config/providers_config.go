// Copyright 2025 Shadow Atlas Contributors
//
// YAML-driven configuration for provider endpoints and field-mapper
// pipelines: municipal ArcGIS feature services, Socrata datasets, and
// retry/rate-limit tuning. Mirrors the teacher's AnchorConfig YAML loading
// (pkg/config/anchor_config.go): ${VAR} environment substitution before
// parse, and a Duration wrapper type for human-readable YAML durations.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry "500ms"-style values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// FieldOpConfig is the YAML shape of one provider.FieldOp.
type FieldOpConfig struct {
	Op      string   `yaml:"op"`
	Source  string   `yaml:"source,omitempty"`
	Sources []string `yaml:"sources,omitempty"`
	Target  string   `yaml:"target,omitempty"`
	Sep     string   `yaml:"sep,omitempty"`
	Start   int      `yaml:"start,omitempty"`
	End     int      `yaml:"end,omitempty"`
	Pattern string   `yaml:"pattern,omitempty"`
	Value   string   `yaml:"value,omitempty"`
}

// MunicipalEndpointConfig is the YAML shape of one city's ArcGIS endpoint.
type MunicipalEndpointConfig struct {
	PlaceFIPS  string          `yaml:"place_fips"`
	QueryURL   string          `yaml:"query_url"`
	GEOIDField string          `yaml:"geoid_field"`
	FieldOps   []FieldOpConfig `yaml:"field_ops,omitempty"`
}

// SocrataEndpointConfig is the YAML shape of one Socrata dataset.
type SocrataEndpointConfig struct {
	StateFIPS   string          `yaml:"state_fips"`
	Layer       string          `yaml:"layer"`
	DatasetURL  string          `yaml:"dataset_url"`
	GeometryCol string          `yaml:"geometry_col"`
	GEOIDField  string          `yaml:"geoid_field"`
	FieldOps    []FieldOpConfig `yaml:"field_ops,omitempty"`
}

// RetrySettings is the YAML shape of the retry block. It is parsed and
// defaulted here; the job runner uses provider.DefaultRetryPolicy and does
// not read it.
type RetrySettings struct {
	InitialInterval     Duration `yaml:"initial_interval"`
	MaxInterval         Duration `yaml:"max_interval"`
	MaxElapsedTime      Duration `yaml:"max_elapsed_time"`
	MaxAttempts         int      `yaml:"max_attempts"`
	RandomizationFactor float64  `yaml:"randomization_factor"`
}

// RateLimitSettings is the YAML shape of the rate_limit block. It is parsed
// and defaulted here; provider.NewHostLimiter does not read it.
type RateLimitSettings struct {
	MinSpacing Duration `yaml:"min_spacing"`
}

// ProvidersConfig is the root document loaded from the providers YAML file.
type ProvidersConfig struct {
	TigerBaseURL string `yaml:"tiger_base_url"`

	Municipal []MunicipalEndpointConfig `yaml:"municipal,omitempty"`
	Socrata   []SocrataEndpointConfig   `yaml:"socrata,omitempty"`

	Retry     RetrySettings     `yaml:"retry"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadProvidersConfig reads and parses the providers YAML file, expanding
// ${VAR} references against the process environment first.
func LoadProvidersConfig(path string) (*ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers config %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg ProvidersConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse providers config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *ProvidersConfig) applyDefaults() {
	if c.TigerBaseURL == "" {
		c.TigerBaseURL = "https://www2.census.gov/geo/tiger/TIGER2024"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = Duration(500 * time.Millisecond)
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = Duration(30 * time.Second)
	}
	if c.Retry.RandomizationFactor == 0 {
		c.Retry.RandomizationFactor = 0.25
	}
	if c.RateLimit.MinSpacing == 0 {
		c.RateLimit.MinSpacing = Duration(500 * time.Millisecond)
	}
}

// CompilePattern compiles a FieldOpConfig's regex pattern, returning nil if
// the op does not carry one.
func (c FieldOpConfig) CompilePattern() (*regexp.Regexp, error) {
	if c.Pattern == "" {
		return nil, nil
	}
	return regexp.Compile(c.Pattern)
}
