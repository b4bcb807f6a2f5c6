// Package config loads slideshow settings from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"goslide/internal/sequence"
)

// Insert policy names accepted in config files and on the command line.
const (
	InsertShowNext = "show-next"
	InsertAppend   = "append"
)

// Config holds every recognized slideshow setting. Flags layer on top
// of the file values, which layer on top of the defaults.
type Config struct {
	Interval   float64  `yaml:"interval"`    // seconds an image stays on screen
	Random     bool     `yaml:"random"`      // shuffle playback order
	Loop       int      `yaml:"loop"`        // -1 infinite, 0 once through, N extra loops
	Watch      bool     `yaml:"watch"`       // react to images added while running
	Insert     string   `yaml:"insert"`      // show-next | append
	Extensions []string `yaml:"extensions"`  // allowed file extensions
	Ignore     []string `yaml:"ignore"`      // glob patterns to exclude
	HoldOnEnd  bool     `yaml:"hold_on_end"` // keep last image up after exhaustion
	Windowed   bool     `yaml:"windowed"`    // run in a window instead of fullscreen
	Resume     bool     `yaml:"resume"`      // restart from the last shown image
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Interval: 6.0,
		Loop:     sequence.LoopForever,
		Insert:   InsertShowNext,
	}
}

// Load reads the configuration from the default location
// (~/.config/goslide/config.yaml). An unresolvable home directory only
// means there is no config file to read, so the defaults apply.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		logrus.WithError(err).Warn("cannot resolve home directory, using default settings")
		return Default(), nil
	}
	return LoadFile(filepath.Join(home, ".config", "goslide", "config.yaml"))
}

// LoadFile reads configuration from path. A missing file is not an
// error; the defaults are returned unchanged.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the slideshow cannot run with.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %g", c.Interval)
	}
	if c.Loop < sequence.LoopForever {
		return fmt.Errorf("loop must be -1 or greater, got %d", c.Loop)
	}
	if c.Insert != InsertShowNext && c.Insert != InsertAppend {
		return fmt.Errorf("insert must be %q or %q, got %q", InsertShowNext, InsertAppend, c.Insert)
	}
	return nil
}

// IntervalDuration returns the display interval as a time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// Mode returns the playback order mode.
func (c *Config) Mode() sequence.Mode {
	if c.Random {
		return sequence.Random
	}
	return sequence.Sequential
}

// Policy returns the insertion policy. Call Validate first.
func (c *Config) Policy() sequence.InsertPolicy {
	if c.Insert == InsertAppend {
		return sequence.Append
	}
	return sequence.ShowNext
}
