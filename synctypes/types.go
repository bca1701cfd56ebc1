// Package synctypes provides shared types used across the treesync library.
// This package contains the remote store contract, configuration structures,
// result and progress types, and functional option definitions.
package synctypes

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
)

// FileRecord describes one record held by the remote store. ExternalID is the
// stable identity key: the absolute local path the record was indexed from.
type FileRecord struct {
	// ExternalID is the absolute local path used as the record's identity
	ExternalID string

	// Metadata carries the change-detection fields stored alongside the content
	Metadata RecordMetadata
}

// RecordMetadata holds the change-detection metadata for a record.
// Size and MTime are best-effort optimization fields; legacy records may lack
// them, in which case they are nil and the content hash decides.
type RecordMetadata struct {
	// Path is the absolute local path the content was read from
	Path string

	// Hash is the hex-encoded SHA-256 digest of the content
	Hash string

	// Size is the content length in bytes, if recorded
	Size *int64

	// MTime is the source file's modification time in seconds since the epoch,
	// if recorded
	MTime *float64
}

// UploadRequest describes one upload handed to the Store.
type UploadRequest struct {
	// ExternalID is the record identity to write
	ExternalID string

	// Overwrite replaces an existing record with the same ExternalID
	Overwrite bool

	// Metadata is stored alongside the content for later change detection
	Metadata RecordMetadata
}

// Store is the remote content-addressed store boundary. Implementations are
// expected to be network clients; all three operations are treated as fallible
// and must honor the provided context.
type Store interface {
	// ListRecords returns the records for storeID whose ExternalID begins with
	// pathPrefix. An empty pathPrefix returns every record.
	ListRecords(ctx context.Context, storeID, pathPrefix string) ([]FileRecord, error)

	// Upload writes content under req.ExternalID with the given metadata.
	Upload(ctx context.Context, storeID string, content io.Reader, req UploadRequest) error

	// Delete removes the record identified by externalID.
	Delete(ctx context.Context, storeID, externalID string) error
}

// IgnoreFilter answers ignore queries using a repository's own pattern file for
// one directory. Add and Clear inject or reset rules without touching disk.
type IgnoreFilter interface {
	// IsIgnored reports whether path is excluded by the filter's current rules.
	IsIgnored(path string) bool

	// Add appends one pattern to the filter.
	Add(pattern string)

	// Clear removes every rule, including rules loaded from disk.
	Clear()
}

// RepositoryAdapter supplies version-control-aware discovery for directories
// that are repositories. Implementations degrade to absent rather than fail:
// a missing version-control tool means IsRepository is false and ListFiles is
// empty, never an error.
type RepositoryAdapter interface {
	// IsRepository reports whether dir is inside a version-controlled work tree.
	// The answer is cached for the process lifetime.
	IsRepository(ctx context.Context, dir string) bool

	// ListFiles returns the absolute paths of tracked plus untracked-but-not-
	// excluded files under dir, using the version-control tool's own ignore
	// rules. Empty on any failure.
	ListFiles(ctx context.Context, dir string) []string

	// IgnoreFilter returns the filter backed by dir's own pattern file.
	IgnoreFilter(dir string) IgnoreFilter
}

// SyncResult contains the final counters for one sync invocation.
// Counters are monotonically non-decreasing while the run is in flight.
type SyncResult struct {
	// Processed counts every settled unit of work (uploads, skips, deletes)
	Processed int

	// Uploaded counts files handed to the store (or counted on a dry run)
	Uploaded int

	// Deleted counts remote records removed (or counted on a dry run)
	Deleted int

	// Errors counts units that failed; failures never abort remaining units
	Errors int

	// Total is the number of units scheduled for this run
	Total int

	// Duration is the wall-clock time of the whole run
	Duration time.Duration
}

// ProgressEvent is an immutable counter snapshot emitted after each unit of
// work settles.
type ProgressEvent struct {
	Processed int
	Uploaded  int
	Deleted   int
	Errors    int
	Total     int

	// FilePath is the path or record identity the unit just handled
	FilePath string

	// LastError is the failure message for the unit, empty on success
	LastError string
}

// ProgressFunc receives ProgressEvent values during a sync run. The callback
// is invoked under the tracker lock; implementations should return quickly.
type ProgressFunc func(ProgressEvent)

// Config is the read-only configuration consumed by the reconciler and the
// ignore resolver. It is never mutated by the library.
type Config struct {
	// MaxFileSize is the upload size limit in bytes; 0 means no limit
	MaxFileSize int64 `yaml:"max_file_size"`

	// Sync holds reconciler settings
	Sync SyncConfig `yaml:"sync"`

	// Ignore holds ignore-category settings
	Ignore IgnoreConfig `yaml:"ignore"`
}

// SyncConfig holds the reconciler's concurrency settings.
type SyncConfig struct {
	// Concurrency is the bounded worker pool size for store operations
	Concurrency int `yaml:"concurrency"`
}

// IgnoreConfig controls which built-in ignore categories are applied.
type IgnoreConfig struct {
	// Categories maps category name to enabled state. Names absent from the
	// map keep their default state.
	Categories map[string]bool `yaml:"categories"`
}

// ClientConfig holds the configuration for creating a treesync client.
type ClientConfig struct {
	// Filesystem is the filesystem abstraction used for all local file access
	Filesystem billy.Filesystem

	// Logger receives structured diagnostics; degrade-and-continue paths log here
	Logger *slog.Logger

	// Repository overrides the default version-control adapter
	Repository RepositoryAdapter

	// Config is the read-only engine configuration
	Config *Config
}

// SyncOptionConfig holds per-call sync settings layered over the client Config.
type SyncOptionConfig struct {
	// DryRun computes and counts every decision without calling the store
	DryRun bool

	// Progress receives a snapshot after each unit of work
	Progress ProgressFunc

	// Concurrency overrides the configured pool size when positive
	Concurrency int

	// MaxFileSize overrides the configured size limit when non-nil
	MaxFileSize *int64
}

// Option is a functional option for configuring the client.
type Option func(*ClientConfig)

// SyncOption is a functional option for configuring a single sync call.
type SyncOption func(*SyncOptionConfig)
