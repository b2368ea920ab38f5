// Package config resolves msgmod settings for a project root.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults
//  2. .msgmod.yaml at the project root
//  3. .env at the project root
//  4. process environment (MSGMOD_*)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/incognito-design/msgmod/internal/loader"
	"github.com/incognito-design/msgmod/internal/msgmod"
)

// File names looked up at the project root.
const (
	FileName = ".msgmod.yaml"
	EnvFile  = ".env"
)

// Environment variables.
const (
	EnvExtension  = "MSGMOD_EXTENSION"  // message file extension
	EnvTargets    = "MSGMOD_TARGETS"    // fn@module,fn@module
	EnvJobs       = "MSGMOD_JOBS"       // parallel files
	EnvExtensions = "MSGMOD_EXTENSIONS" // source extensions, comma separated
)

// DefaultCacheSize bounds the message file cache.
const DefaultCacheSize = 512

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds the resolved settings.
type Config struct {
	Root             string                `yaml:"-"`
	Extension        string                `yaml:"extension"`
	Targets          []msgmod.HijackTarget `yaml:"targets"`
	Jobs             int                   `yaml:"jobs"`
	SourceExtensions []string              `yaml:"sourceExtensions"`
	Verify           bool                  `yaml:"verify"`
	CacheSize        int                   `yaml:"cacheSize"`
}

// Default returns the built-in settings for root.
func Default(root string) *Config {
	return &Config{
		Root:      root,
		Extension: "properties",
		Targets:   []msgmod.HijackTarget{msgmod.DefaultTarget},
		Verify:    true,
		CacheSize: DefaultCacheSize,
	}
}

// Load resolves the settings of the project at root.
func Load(root string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	c := Default(abs)
	if err := c.loadFile(filepath.Join(abs, FileName)); err != nil {
		return nil, err
	}
	dotenv, err := readDotenv(filepath.Join(abs, EnvFile))
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := c.applyEnv(lookup); err != nil {
		return nil, err
	}
	return c, c.validate()
}

// FindRoot returns the nearest directory at or above dir holding a
// .msgmod.yaml.
func FindRoot(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		if fi, err := os.Stat(filepath.Join(abs, FileName)); err == nil && !fi.IsDir() {
			return abs, true
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", false
		}
		abs = parent
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvExtension); ok && v != "" {
		c.Extension = v
	}
	if v, ok := lookup(EnvTargets); ok && v != "" {
		targets, err := ParseTargets(v)
		if err != nil {
			return err
		}
		c.Targets = targets
	}
	if v, ok := lookup(EnvJobs); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvJobs, v, err)
		}
		c.Jobs = n
	}
	if v, ok := lookup(EnvExtensions); ok && v != "" {
		c.SourceExtensions = splitList(v)
	}
	return nil
}

func (c *Config) validate() error {
	c.Extension = strings.TrimPrefix(c.Extension, ".")
	switch {
	case c.Extension == "":
		return fmt.Errorf("%w: empty extension", ErrInvalidConfig)
	case len(c.Targets) == 0:
		return fmt.Errorf("%w: no targets", ErrInvalidConfig)
	case c.Jobs < 0:
		return fmt.Errorf("%w: negative jobs", ErrInvalidConfig)
	}
	for _, t := range c.Targets {
		if t.Function == "" || t.Module == "" {
			return fmt.Errorf("%w: incomplete target %q", ErrInvalidConfig, t.String())
		}
	}
	return nil
}

// ParseTargets parses a comma separated list of fn@module targets. The
// function name ends at the first '@', so scoped modules such as
// useMessages@@acme/i18n are accepted.
func ParseTargets(s string) ([]msgmod.HijackTarget, error) {
	var targets []msgmod.HijackTarget
	for _, item := range splitList(s) {
		fn, module, ok := strings.Cut(item, "@")
		if !ok || fn == "" || module == "" {
			return nil, fmt.Errorf("%w: target %q, want fn@module", ErrInvalidConfig, item)
		}
		targets = append(targets, msgmod.HijackTarget{Function: fn, Module: module})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: empty target list", ErrInvalidConfig)
	}
	return targets, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Options builds engine options with a cached loader for the configured
// message file extension.
func (c *Config) Options() (msgmod.Options, error) {
	load, err := loader.ForExtension(c.Extension)
	if err != nil {
		return msgmod.Options{}, err
	}
	size := c.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cached, err := loader.Cached(load, size)
	if err != nil {
		return msgmod.Options{}, err
	}
	return msgmod.Options{
		Root:                  c.Root,
		Targets:               c.Targets,
		MessagesFileExtension: c.Extension,
		Loader:                cached,
		SourceExtensions:      c.SourceExtensions,
		Jobs:                  c.Jobs,
		Verify:                c.Verify,
	}, nil
}
