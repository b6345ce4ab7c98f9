// Package config handles bceval.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "bceval.toml"

// Config represents a bceval.toml file.
type Config struct {
	Evaluator Evaluator `toml:"evaluator"`
	Cache     Cache     `toml:"cache"`
	Log       Log       `toml:"log"`
	Workspace Workspace `toml:"workspace"`

	// Dir is the directory containing the bceval.toml file (set at load time).
	Dir string `toml:"-"`
}

// Evaluator configures evaluation limits.
type Evaluator struct {
	MaxSteps          int  `toml:"max-steps"`
	MaxDepth          int  `toml:"max-depth"`
	EvaluateInternals bool `toml:"evaluate-internals"`
	Trace             bool `toml:"trace"`
}

// Cache configures the persistent verdict store. An empty path disables it.
type Cache struct {
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Workspace lists the class sources to load.
type Workspace struct {
	Classes []string `toml:"classes"`
	Bundles []string `toml:"bundles"`
}

const (
	// DefaultMaxSteps matches eval.DefaultMaxSteps.
	DefaultMaxSteps = 10_000

	// DefaultMaxDepth matches eval.DefaultMaxDepth.
	DefaultMaxDepth = 256
)

// Default returns the configuration used when no file is found.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

// Load parses a bceval.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(data, dir)
}

// Parse decodes configuration data as if it had been read from dir.
func Parse(data []byte, dir string) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", filepath.Join(dir, FileName), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), filepath.Join(dir, FileName))
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if c.Evaluator.MaxSteps < 0 {
		return nil, fmt.Errorf("evaluator.max-steps must not be negative, got %d", c.Evaluator.MaxSteps)
	}
	if c.Evaluator.MaxDepth < 0 {
		return nil, fmt.Errorf("evaluator.max-depth must not be negative, got %d", c.Evaluator.MaxDepth)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Evaluator.MaxSteps == 0 {
		c.Evaluator.MaxSteps = DefaultMaxSteps
	}
	if c.Evaluator.MaxDepth == 0 {
		c.Evaluator.MaxDepth = DefaultMaxDepth
	}
}

// FindAndLoad walks up from startDir to find a bceval.toml file,
// then loads and returns it. Returns nil if no file is found.
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
			return nil, nil
		}
		dir = parent
	}
}

// ClassPaths returns absolute paths for the configured YAML class files.
func (c *Config) ClassPaths() []string {
	return c.resolve(c.Workspace.Classes)
}

// BundlePaths returns absolute paths for the configured CBOR bundles.
func (c *Config) BundlePaths() []string {
	return c.resolve(c.Workspace.Bundles)
}

// CachePath returns the absolute verdict store path, or "" when disabled.
func (c *Config) CachePath() string {
	if c.Cache.Path == "" || c.Cache.Path == ":memory:" {
		return c.Cache.Path
	}
	return c.abs(c.Cache.Path)
}

// LogPath returns the absolute log file path, or nil for stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	p := c.abs(c.Log.File)
	return &p
}

func (c *Config) resolve(paths []string) []string {
	var out []string
	for _, p := range paths {
		out = append(out, c.abs(p))
	}
	return out
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
