// Package config holds the user-tunable settings, loaded from an
// optional YAML file with flag overrides on top.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultConfigFilename = "speedboard.yaml"

// Config holds all settings for the dashboard process.
type Config struct {
	// Port the dashboard listens on.
	Port int `yaml:"port"`
	// ProbeURL is timed during the ping phase. Empty means every
	// sample uses the simulated fallback.
	ProbeURL string `yaml:"probe_url"`
	// IPLookupURL is the external public-IP lookup endpoint.
	IPLookupURL string `yaml:"ip_lookup_url"`
	// DelayScale multiplies every simulated delay. 1.0 is real-time
	// pacing; 0 runs instantly. Reloadable.
	DelayScale float64 `yaml:"delay_scale"`
	// Seed fixes the randomness source; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:        8080,
		ProbeURL:    "",
		IPLookupURL: "https://api.ipify.org?format=json",
		DelayScale:  1.0,
		Seed:        0,
	}
}

// Load reads path over the defaults. A missing file is not an error;
// the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigFilename
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config read failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config parse failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.DelayScale < 0 {
		return fmt.Errorf("delay scale cannot be negative")
	}
	return nil
}
