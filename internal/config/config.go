// Package config loads the norm-check YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"norm-check/internal/reporter"
)

type ReportConfig struct {
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"` // empty writes to stdout
}

type ScanConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	Excludes   []string `yaml:"excludes" json:"excludes"`
	Workers    int      `yaml:"workers" json:"workers"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type Config struct {
	Report ReportConfig `yaml:"report" json:"report"`
	Scan   ScanConfig   `yaml:"scan" json:"scan"`
	Server ServerConfig `yaml:"server" json:"server"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Report: ReportConfig{Format: "console"},
		Scan: ScanConfig{
			Extensions: []string{"sql", "dump", "backup"},
			Excludes:   []string{"vendor", "node_modules"},
			Workers:    4,
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads YAML from path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"console", "json"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var err error
	if !oneOf(c.Report.Format, reporter.Formats) {
		err = multierr.Append(err, fmt.Errorf("report.format must be one of %s, got %q", strings.Join(reporter.Formats, ", "), c.Report.Format))
	}
	if len(c.Scan.Extensions) == 0 {
		err = multierr.Append(err, errors.New("scan.extensions must not be empty"))
	}
	if c.Scan.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if !oneOf(c.Log.Level, logLevels) {
		err = multierr.Append(err, fmt.Errorf("log.level must be one of %s, got %q", strings.Join(logLevels, ", "), c.Log.Level))
	}
	if !oneOf(c.Log.Format, logFormats) {
		err = multierr.Append(err, fmt.Errorf("log.format must be one of %s, got %q", strings.Join(logFormats, ", "), c.Log.Format))
	}
	return err
}
