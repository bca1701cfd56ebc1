// Package treesync provides client initialization and configuration.
package treesync

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/discovery"
	"github.com/syncwell/treesync/internal/gitrepo"
	"github.com/syncwell/treesync/internal/ignore"
	"github.com/syncwell/treesync/synctypes"
)

// Client drives discovery, ignore resolution, and reconciliation against
// one remote store. It is safe for concurrent use; all configuration is
// fixed at construction time.
type Client struct {
	// store is the remote backend every sync writes through
	store synctypes.Store

	// fsys is the filesystem abstraction for all local file access
	fsys billy.Filesystem

	// log receives structured diagnostics
	log *slog.Logger

	// repo answers version-control questions during discovery
	repo synctypes.RepositoryAdapter

	// cfg is the engine configuration applied to every sync
	cfg *synctypes.Config

	// resolver owns the cascading ignore-rule cache
	resolver *ignore.Resolver

	// finder walks directory trees or delegates to the repository adapter
	finder *discovery.Finder
}

// New creates a treesync client writing through the given store.
// Options configure the filesystem, logger, repository adapter, and
// engine settings; everything left unset takes a sensible default.
//
// Example:
//
//	client, err := treesync.New(store,
//	    treesync.WithLogger(logger),
//	    treesync.WithConfig(cfg),
//	)
func New(store synctypes.Store, opts ...synctypes.Option) (*Client, error) {
	if store == nil {
		return nil, errors.NewValidationError("client initialization", "store cannot be nil")
	}

	clientCfg := &synctypes.ClientConfig{}
	for _, opt := range opts {
		opt(clientCfg)
	}

	fsys := clientCfg.Filesystem
	if fsys == nil {
		fsys = osfs.New("/")
	}

	log := clientCfg.Logger
	if log == nil {
		log = slog.Default()
	}

	cfg := clientCfg.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	repo := clientCfg.Repository
	if repo == nil {
		repo = gitrepo.New(log)
	}

	return &Client{
		store:    store,
		fsys:     fsys,
		log:      log,
		repo:     repo,
		cfg:      cfg,
		resolver: ignore.NewResolver(fsys, cfg, log),
		finder:   discovery.New(fsys, repo, log),
	}, nil
}
