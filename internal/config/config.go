// Package config reads the optional umbra.toml at the database root.
// Missing file means defaults; CLI flags override loaded values.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"umbra/internal/umbraerr"
)

// Config is the full engine configuration.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Compiler CompilerConfig `toml:"compiler"`
}

// EngineConfig tunes the executor and page store.
type EngineConfig struct {
	PageSize         int    `toml:"page_size"`
	MaxResults       int    `toml:"max_results"`
	KernelCacheSize  int    `toml:"kernel_cache_size"`
	ToleratePageLoss bool   `toml:"tolerate_page_loss"`
	Creator          string `toml:"creator"`
}

// CompilerConfig selects the external C toolchain.
type CompilerConfig struct {
	CC    string   `toml:"cc"`
	Flags []string `toml:"flags"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			PageSize:        65535,
			MaxResults:      10000,
			KernelCacheSize: 128,
			Creator:         "umbra",
		},
	}
}

// Load reads <baseDir>/umbra.toml over the defaults.
func Load(baseDir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(baseDir, "umbra.toml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, &umbraerr.IoError{Path: path, Cause: err}
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, &umbraerr.IoError{Path: path, Cause: err}
	}
	if cfg.Engine.PageSize <= 0 {
		cfg.Engine.PageSize = Default().Engine.PageSize
	}
	if cfg.Engine.MaxResults <= 0 {
		cfg.Engine.MaxResults = Default().Engine.MaxResults
	}
	if cfg.Engine.KernelCacheSize <= 0 {
		cfg.Engine.KernelCacheSize = Default().Engine.KernelCacheSize
	}
	return cfg, nil
}
