package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrNoMatches        = errors.New("no files match pattern")
)

// LoadFile reads a CombinedConfiguration from a YAML or JSON file. The
// format is detected from the extension (.yaml/.yml for YAML, JSON
// otherwise). Environment references of the form ${VAR} expand before
// parsing; unset variables stay verbatim. The document is checked against
// the embedded schema and then linted structurally; any issue fails the
// load.
func LoadFile(path string) (*CombinedConfiguration, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	expanded := []byte(expandEnvVars(string(data)))

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return parseYAML(expanded, path)
	}
	return parseJSON(expanded, path)
}

// LoadGlob loads every file matching the patterns, in sorted path order, and
// merges them section by section: later files patch earlier ones. Patterns
// support ** for recursive matching.
func LoadGlob(patterns ...string) (*CombinedConfiguration, error) {
	var matches []string
	for _, p := range patterns {
		expanded, err := expandGlob(p)
		if err != nil {
			return nil, fmt.Errorf("expanding glob %q: %w", p, err)
		}
		matches = append(matches, expanded...)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, strings.Join(patterns, ", "))
	}

	sort.Strings(matches)
	matches = dedupe(matches)

	merged := &CombinedConfiguration{}
	for _, path := range matches {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		merged = mergeCombined(merged, cfg)
	}
	return merged, nil
}

func parseYAML(data []byte, path string) (*CombinedConfiguration, error) {
	if err := CheckSchema(data, FormatYAML); err != nil {
		return nil, fmt.Errorf("schema check for %s: %w", path, err)
	}
	var cfg CombinedConfiguration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrInvalidYAML, path, err)
	}
	if issues := cfg.Check(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, issues)
	}
	return &cfg, nil
}

func parseJSON(data []byte, path string) (*CombinedConfiguration, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in %s", ErrInvalidJSON, path)
	}
	if err := CheckSchema(data, FormatJSON); err != nil {
		return nil, fmt.Errorf("schema check for %s: %w", path, err)
	}
	var cfg CombinedConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if issues := cfg.Check(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, issues)
	}
	return &cfg, nil
}

// expandGlob expands a glob pattern. Patterns containing ** use doublestar
// for recursive matching; plain patterns go through filepath.Glob.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandEnvVars substitutes ${VAR} and $VAR references from the process
// environment. Unset variables are kept as ${VAR} so templates survive
// loading on machines without the variable.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return "${" + key + "}"
	})
}

func mergeCombined(base, patch *CombinedConfiguration) *CombinedConfiguration {
	out := base.Clone()
	if patch.Document != nil {
		out.Document = mergeSection(out.Document, patch.Document)
	}
	if patch.Field != nil {
		out.Field = mergeSection(out.Field, patch.Field)
	}
	if patch.Crypto != nil {
		out.Crypto = mergeSection(out.Crypto, patch.Crypto)
	}
	return &out
}

func mergeSection(base, patch *MockConfiguration) *MockConfiguration {
	if base == nil {
		c := patch.Clone()
		return &c
	}
	merged := base.Merge(*patch)
	return &merged
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}
