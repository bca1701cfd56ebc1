// Package treesync provides functional options for configuring client behavior.
// These options follow the functional options pattern for clean, composable configuration.
package treesync

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/syncwell/treesync/synctypes"
)

// WithFilesystem sets a custom filesystem implementation for local file access.
// This allows using in-memory filesystems for testing or virtual filesystems.
// If not specified, defaults to the OS filesystem rooted at /.
func WithFilesystem(fsys billy.Filesystem) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Filesystem = fsys
	}
}

// WithLogger sets the logger that receives structured diagnostics.
// Discovery and ignore-resolution degrade paths report through it.
// If not specified, defaults to slog.Default().
func WithLogger(log *slog.Logger) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Logger = log
	}
}

// WithRepository sets a custom repository adapter for version-control-aware
// discovery. Use this to stub out git in tests or to disable repository
// detection entirely.
func WithRepository(repo synctypes.RepositoryAdapter) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Repository = repo
	}
}

// WithConfig sets the engine configuration applied to every sync.
// If not specified, DefaultConfig() is used.
func WithConfig(cfg *synctypes.Config) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Config = cfg
	}
}

// WithDryRun computes and counts every sync decision without calling the
// store. Counters in the result match what a real run would report.
func WithDryRun(dryRun bool) synctypes.SyncOption {
	return func(c *synctypes.SyncOptionConfig) {
		c.DryRun = dryRun
	}
}

// WithSyncProgress registers a callback that receives a counter snapshot
// after each file settles. The callback runs on the sync's worker
// goroutines and should return quickly.
func WithSyncProgress(fn synctypes.ProgressFunc) synctypes.SyncOption {
	return func(c *synctypes.SyncOptionConfig) {
		c.Progress = fn
	}
}

// WithSyncConcurrency overrides the configured worker pool size for this
// call. Non-positive values are ignored.
func WithSyncConcurrency(n int) synctypes.SyncOption {
	return func(c *synctypes.SyncOptionConfig) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithSyncMaxFileSize overrides the configured upload size limit for this
// call. Zero means no limit.
func WithSyncMaxFileSize(size int64) synctypes.SyncOption {
	return func(c *synctypes.SyncOptionConfig) {
		c.MaxFileSize = &size
	}
}
