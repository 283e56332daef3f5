// Package config holds runtime configuration for the agent and relay.
package config

import (
	"encoding/json"
	"os"

	"remotehands/internal/locate"
)

// Config may be loaded from a JSON file and overridden by command-line
// flags. The locate block exists because every matching threshold was tuned
// against one application's UI; a different theme or resolution retunes
// through this file instead of a rebuild.
type Config struct {
	ServerURL   string `json:"server_url"`
	ClientID    string `json:"client_id"`
	TemplateDir string `json:"template_dir"`
	Debug       bool   `json:"debug"`

	// UpscaleBelow is the template smaller-dimension size under which the
	// store prepares an upscaled working copy.
	UpscaleBelow int `json:"upscale_below"`

	Locate locate.Params `json:"locate"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		ServerURL:    "ws://localhost:8123",
		ClientID:     hostname,
		TemplateDir:  "templates",
		Debug:        false,
		UpscaleBelow: 100,
		Locate:       locate.DefaultParams(),
	}
}

// Validate clamps values to safe ranges.
func (c *Config) Validate() {
	if c.ServerURL == "" {
		c.ServerURL = "ws://localhost:8123"
	}
	if c.ClientID == "" {
		c.ClientID, _ = os.Hostname()
	}
	if c.TemplateDir == "" {
		c.TemplateDir = "templates"
	}
	if c.UpscaleBelow <= 0 {
		c.UpscaleBelow = 100
	}
	c.Locate.Validate()
}

// Load reads configuration from the given JSON file path. A missing file
// yields defaults; a malformed file yields defaults plus the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
