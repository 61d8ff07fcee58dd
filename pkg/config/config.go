// Package config loads gatecheck settings from an optional YAML file
// with environment-variable overrides for values that come from the CI
// environment, secrets included (AQUA_PASSWORD, SDE_TOKEN).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AquaConfig holds Aqua console settings.
type AquaConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Registry is the Aqua registry scan results live under.
	Registry string `yaml:"registry"`

	// RegistryPrefix is trimmed off image names for display,
	// e.g. "ghcr.io/acme/".
	RegistryPrefix string `yaml:"registry_prefix"`
}

// SDEConfig holds SD Elements settings.
type SDEConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Config is the full gatecheck configuration.
type Config struct {
	Aqua AquaConfig `yaml:"aqua"`
	SDE  SDEConfig  `yaml:"sde"`

	// CACertFile adds a CA bundle for the scan services' TLS endpoints.
	CACertFile string `yaml:"ca_cert_file"`

	// TimeoutSeconds bounds each API request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// BuildURL is the workflow run URL referenced in annotations.
	BuildURL string `yaml:"build_url"`
}

// Default returns the configuration before any file or environment input.
func Default() Config {
	return Config{
		Aqua:           AquaConfig{Registry: "Ad Hoc Scans"},
		TimeoutSeconds: 30,
	}
}

// Load reads the YAML file at path (skipped when path is empty) over the
// defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays the environment variables the CI pipeline provides.
func (c *Config) applyEnv() {
	envOverride(&c.Aqua.URL, "AQUA_URL")
	envOverride(&c.Aqua.Username, "AQUA_USERNAME")
	envOverride(&c.Aqua.Password, "AQUA_PASSWORD")
	envOverride(&c.SDE.URL, "SDE_URL")
	envOverride(&c.SDE.Token, "SDE_TOKEN")
	envOverride(&c.CACertFile, "CA_CERTS")
	envOverride(&c.BuildURL, "BUILD_URL")
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ValidateAqua checks the settings the Aqua commands need.
func (c Config) ValidateAqua() error {
	if c.Aqua.URL == "" {
		return fmt.Errorf("%w: aqua url", ErrMissingRequired)
	}
	if c.Aqua.Username == "" || c.Aqua.Password == "" {
		return fmt.Errorf("%w: aqua credentials", ErrMissingRequired)
	}
	return nil
}

// ValidateSDE checks the settings the SDE command needs.
func (c Config) ValidateSDE() error {
	if c.SDE.URL == "" {
		return fmt.Errorf("%w: sde url", ErrMissingRequired)
	}
	if c.SDE.Token == "" {
		return fmt.Errorf("%w: sde token", ErrMissingRequired)
	}
	return nil
}
