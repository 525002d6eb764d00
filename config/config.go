// Package config handles avmstring.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "avmstring.toml"

// Config represents an avmstring.toml file.
type Config struct {
	Arena   Arena   `toml:"arena"`
	Strings Strings `toml:"strings"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// Arena configures collection.
type Arena struct {
	// CollectInterval is a Go duration string; "0" disables the periodic
	// collector.
	CollectInterval  string `toml:"collect-interval"`
	CollectThreshold int    `toml:"collect-threshold"`
}

// Strings configures the string core.
type Strings struct {
	// InPlaceAppend enables the in-place append path of concatenation.
	// A nil value means the default (enabled).
	InPlaceAppend *bool `toml:"in-place-append"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses avmstring.toml from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// Parse decodes TOML data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if _, err := c.CollectInterval(); err != nil {
		return nil, err
	}
	if c.Arena.CollectThreshold < 0 {
		return nil, fmt.Errorf("arena.collect-threshold must not be negative, got %d", c.Arena.CollectThreshold)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find avmstring.toml, then loads
// it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if c.Arena.CollectInterval == "" {
		c.Arena.CollectInterval = "30s"
	}
	if c.Strings.InPlaceAppend == nil {
		enabled := true
		c.Strings.InPlaceAppend = &enabled
	}
}

// CollectInterval returns the parsed collector period. Zero means the
// periodic collector is disabled.
func (c *Config) CollectInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Arena.CollectInterval)
	if err != nil {
		return 0, fmt.Errorf("arena.collect-interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("arena.collect-interval must not be negative, got %s", d)
	}
	return d, nil
}

// InPlaceAppend reports whether concatenation may append in place.
func (c *Config) InPlaceAppend() bool {
	return c.Strings.InPlaceAppend == nil || *c.Strings.InPlaceAppend
}

// LogPath returns the log file path, or nil for stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	p := c.Log.File
	if !filepath.IsAbs(p) && c.Dir != "" {
		p = filepath.Join(c.Dir, p)
	}
	return &p
}
