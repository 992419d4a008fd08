// Package config loads scanner configuration from an optional TOML file and
// applies defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file probed when none is given.
const DefaultPath = "pyimportls.toml"

// Config controls a scan run. CLI flags override file values (exclude globs
// from flags are added to the file's list); file values override defaults.
type Config struct {
	// Interpreter is the Python binary whose sys.path is scanned.
	Interpreter string `toml:"interpreter"`
	// MaxWorkers bounds the parse pool. Zero means one worker per CPU.
	MaxWorkers int `toml:"max_workers"`
	// Exclude holds doublestar globs matched against root-relative paths.
	Exclude []string `toml:"exclude"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interpreter: "python3",
	}
}

// Load reads path over the defaults. A missing file is not an error when
// path is DefaultPath; an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Interpreter == "" {
		return errors.New("config: interpreter must not be empty")
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("config: max_workers must not be negative, got %d", c.MaxWorkers)
	}
	return nil
}

// Workers resolves MaxWorkers to a positive worker count.
func (c Config) Workers() int {
	if c.MaxWorkers > 0 {
		return c.MaxWorkers
	}
	return runtime.NumCPU()
}
