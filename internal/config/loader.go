package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/heartmarshall/mastertext/internal/domain"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// A .env file in the working directory is applied to the environment first;
// variables that are already set keep their value.
// path falls back to the CONFIG_PATH env. When neither is set, configuration
// comes from ENV + defaults only. Load does not validate: positional
// arguments may still fill in required paths, see ApplyArgs.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// ApplyArgs overrides the configured paths with positional arguments:
//
//	<masterDatabasePath> <outputDir> [hashDictDir] [oldExtractedDir]
//
// No arguments leaves the configuration as is. One argument or more than
// four is a usage error.
func (c *Config) ApplyArgs(args []string) error {
	switch {
	case len(args) == 0:
		return nil
	case len(args) == 1 || len(args) > 4:
		return fmt.Errorf("%w: expected 2 to 4 arguments, got %d", domain.ErrUsage, len(args))
	}

	c.Source.DatabasePath = args[0]
	c.Output.Dir = args[1]
	if len(args) > 2 {
		c.Dictionary.Dir = args[2]
	}
	if len(args) > 3 {
		c.Snapshot.Dir = args[3]
	}
	return nil
}
