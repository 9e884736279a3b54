// Package loader reads report configuration layers from YAML, JSON, or
// TOML files and composes them into a single resolved configuration.
// Layer order is significant: later files override earlier ones key-wise.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"millreport/internal/reportcfg"
)

// Options configures file loading behavior.
type Options struct {
	// AllowUnknownFields accepts keys the config model does not declare.
	// Off by default so typos fail loudly instead of merging as no-ops.
	AllowUnknownFields bool
	// SkipDefaults starts from an empty base layer instead of the
	// built-in spinning defaults.
	SkipDefaults bool
}

// File reads one configuration layer, picking the codec from the file
// extension. The result is unresolved; callers compose layers and call
// Resolve themselves, or use Load.
func File(path string) (*reportcfg.Config, error) {
	return FileWithOptions(path, Options{})
}

// FileWithOptions reads one configuration layer using caller-provided
// loading options.
func FileWithOptions(path string, opts Options) (*reportcfg.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified config files
	if err != nil {
		return nil, fmt.Errorf("read config layer: %w", err)
	}

	cfg := reportcfg.New()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if opts.AllowUnknownFields {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			break
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		if !opts.AllowUnknownFields {
			decoder.DisallowUnknownFields()
		}
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); !opts.AllowUnknownFields && len(undecoded) > 0 {
			return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q in %s", ext, path)
	}
	return cfg, nil
}

// Load reads the given layer files in order, merges them onto the
// built-in defaults, and resolves the result. The frozen config it
// returns is safe for concurrent report generation.
func Load(paths ...string) (*reportcfg.Config, error) {
	return LoadWithOptions(Options{}, paths...)
}

// LoadWithOptions is Load with caller-provided loading options.
func LoadWithOptions(opts Options, paths ...string) (*reportcfg.Config, error) {
	base := reportcfg.Default()
	if opts.SkipDefaults {
		base = reportcfg.New()
	}

	layers := []*reportcfg.Config{base}
	for _, path := range paths {
		layer, err := FileWithOptions(path, opts)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return reportcfg.MergeAll(layers...).Resolve()
}

// Dir loads every config file directly under dir as a layer, ordered by
// file name, and resolves the merge. Non-config files are skipped;
// subdirectories are not walked.
func Dir(dir string) (*reportcfg.Config, error) {
	return DirWithOptions(dir, Options{})
}

// DirWithOptions is Dir with caller-provided loading options.
func DirWithOptions(dir string, opts Options) (*reportcfg.Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json", ".toml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return LoadWithOptions(opts, paths...)
}
