// Package config loads harness settings from a YAML file.
//
// A config file is optional. Example:
//
//	corpus_root: tests
//	categories:
//	  - name: test_parsing
//	  - name: test_transform
//	    label: Transform
//	timeout: 5s
//	jobs: 4
//	sort: true
//	check_exit_code: false
//	color: auto
//	db: .parsetest/history.db
//
// Unknown keys are rejected so typos surface immediately.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/parsetest/internal/harness"
)

// DefaultFile is loaded from the working directory when no --config is given.
const DefaultFile = "parsetest.yaml"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DefaultCategories are the corpus subdirectories of the reference suite.
var DefaultCategories = []string{"test_parsing", "test_transform"}

// Config holds every harness setting.
type Config struct {
	CorpusRoot    string             `yaml:"corpus_root"`
	Categories    []harness.Category `yaml:"categories"`
	Timeout       Duration           `yaml:"timeout"`
	Jobs          int                `yaml:"jobs"`
	Sort          bool               `yaml:"sort"`
	CheckExitCode bool               `yaml:"check_exit_code"`
	Color         string             `yaml:"color"`
	DB            string             `yaml:"db"`
}

// Duration is a time.Duration written as "5s", "1m" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the settings of the reference suite.
func Default() *Config {
	cats := make([]harness.Category, len(DefaultCategories))
	for i, name := range DefaultCategories {
		cats[i] = harness.Category{Name: name}
	}
	return &Config{
		CorpusRoot: "tests",
		Categories: cats,
		Jobs:       1,
		Sort:       true,
		Color:      ColorAuto,
	}
}

// Load reads a config file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional loads path when it exists and returns Default otherwise.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings and fills derived defaults such as labels.
func (c *Config) Validate() error {
	if c.CorpusRoot == "" {
		return errors.New("corpus_root must not be empty")
	}
	if len(c.Categories) == 0 {
		return errors.New("at least one category is required")
	}

	seen := make(map[string]bool, len(c.Categories))
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Name == "" {
			return fmt.Errorf("categories[%d]: name is required", i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("categories[%d]: duplicate category %q", i, cat.Name)
		}
		seen[cat.Name] = true
		if cat.Label == "" {
			cat.Label = Label(cat.Name)
		}
	}

	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", time.Duration(c.Timeout))
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color %q: must be one of auto, always, never", c.Color)
	}
	return nil
}

// Select restricts the categories to names, keeping declared order.
func (c *Config) Select(names []string) error {
	if len(names) == 0 {
		return nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var kept []harness.Category
	for _, cat := range c.Categories {
		if want[cat.Name] {
			kept = append(kept, cat)
			delete(want, cat.Name)
		}
	}
	for n := range want {
		return fmt.Errorf("unknown category %q", n)
	}
	c.Categories = kept
	return nil
}

// HarnessOptions converts the config into harness options.
func (c *Config) HarnessOptions() harness.Options {
	cats := make([]harness.Category, len(c.Categories))
	copy(cats, c.Categories)
	return harness.Options{
		Root:       c.CorpusRoot,
		Categories: cats,
		Jobs:       c.Jobs,
		Sort:       c.Sort,
		Grade:      harness.GradeOptions{CheckExitCode: c.CheckExitCode},
	}
}
