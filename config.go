// Package treesync provides configuration loading and defaults.
package treesync

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/reconcile"
	"github.com/syncwell/treesync/internal/validation"
	"github.com/syncwell/treesync/synctypes"
)

// configFileName is the conventional config file name under the user's
// XDG config directory.
const configFileName = "config.yaml"

// DefaultConfig returns the configuration used when none is provided:
// no upload size limit, the default worker pool size, and every built-in
// ignore category at its default state.
func DefaultConfig() *synctypes.Config {
	return &synctypes.Config{
		MaxFileSize: 0,
		Sync: synctypes.SyncConfig{
			Concurrency: reconcile.DefaultConcurrency,
		},
		Ignore: synctypes.IgnoreConfig{
			Categories: map[string]bool{},
		},
	}
}

// DefaultConfigPath returns the conventional location of the treesync
// configuration file, honoring XDG base directory overrides.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "treesync", configFileName)
}

// LoadConfig reads a YAML configuration file layered over DefaultConfig,
// so omitted keys keep their defaults. An empty path reads from
// DefaultConfigPath. The loaded configuration is validated before it is
// returned.
//
// Example file:
//
//	max_file_size: 104857600
//	sync:
//	  concurrency: 10
//	ignore:
//	  categories:
//	    logs: false
func LoadConfig(path string) (*synctypes.Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewPathError("load config", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewError("load config", err).WithPath(path)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig checks the settings a sync depends on. It is applied to
// loaded files and to configurations handed in through WithConfig.
func validateConfig(cfg *synctypes.Config) error {
	if err := validation.ValidateConcurrency(cfg.Sync.Concurrency); err != nil {
		return err
	}
	if err := validation.ValidateMaxFileSize(cfg.MaxFileSize); err != nil {
		return err
	}
	return nil
}
