// Package treesync provides the public sync API for directory indexing.
package treesync

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/reconcile"
	"github.com/syncwell/treesync/internal/validation"
	"github.com/syncwell/treesync/synctypes"
)

// Sync reconciles the directory tree at root with the store's records
// under storeID.
//
// The operation follows a three-phase approach:
//  1. Inventory: list the remote records and discover local files, in
//     parallel, then drop every local file the ignore rules exclude
//  2. Classification: settle each file as unchanged, upload, or skip
//     using stored size/mtime first and a content hash when needed
//  3. Execution: run uploads and deletes on a bounded worker pool
//
// Records under root with no surviving local file are deleted; records
// outside root are never touched. Per-file failures are counted in the
// result and reported through the progress callback, but never abort the
// remaining work.
//
// Returns:
//   - *SyncResult: final counters; with a non-nil error, the counters
//     cover the units that settled before the run stopped
//   - error: invalid input, a failed record listing, or early termination
//     through the context
//
// Errors:
//   - ErrInvalidInput: storeID or root fails validation
//   - ErrInvalidConfig: concurrency or size limit out of range
//   - Store listing failures wrapped in *errors.Error
//   - context.Canceled / context.DeadlineExceeded wrapped in *errors.Error
//
// Example:
//
//	result, err := client.Sync(ctx, "docs", "/home/me/notes",
//	    treesync.WithDryRun(true),
//	    treesync.WithSyncProgress(func(ev synctypes.ProgressEvent) {
//	        fmt.Printf("%d/%d %s\n", ev.Processed, ev.Total, ev.FilePath)
//	    }),
//	)
//	if err != nil {
//	    return fmt.Errorf("sync failed: %w", err)
//	}
//	fmt.Printf("Uploaded %d, deleted %d, %d errors\n",
//	    result.Uploaded, result.Deleted, result.Errors)
func (c *Client) Sync(
	ctx context.Context,
	storeID, root string,
	opts ...synctypes.SyncOption,
) (*synctypes.SyncResult, error) {
	cfg := &synctypes.SyncOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validation.ValidateStoreID(storeID); err != nil {
		return nil, err
	}
	absRoot, err := c.resolveRoot(root)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = c.cfg.Sync.Concurrency
	}
	if err := validation.ValidateConcurrency(concurrency); err != nil {
		return nil, err
	}

	maxFileSize := c.cfg.MaxFileSize
	if cfg.MaxFileSize != nil {
		maxFileSize = *cfg.MaxFileSize
	}
	if err := validation.ValidateMaxFileSize(maxFileSize); err != nil {
		return nil, err
	}

	c.resolver.LoadRules(absRoot)

	// Inventory both sides concurrently. A listing failure aborts before
	// any store mutation is scheduled.
	var (
		remote []synctypes.FileRecord
		locals []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := c.store.ListRecords(gctx, storeID, filepath.ToSlash(absRoot))
		if err != nil {
			return errors.NewError("list records", err).WithStoreID(storeID).WithPath(absRoot)
		}
		remote = records
		return nil
	})
	g.Go(func() error {
		for _, path := range c.finder.Files(gctx, absRoot) {
			if c.resolver.IsIgnored(path, absRoot) {
				continue
			}
			locals = append(locals, path)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Debug("sync inventory complete",
		"store_id", storeID,
		"root", absRoot,
		"local_files", len(locals),
		"remote_records", len(remote))

	return reconcile.New(c.fsys, c.store, c.log).Run(ctx, storeID, absRoot, locals, remote,
		reconcile.Options{
			DryRun:      cfg.DryRun,
			Progress:    cfg.Progress,
			Concurrency: concurrency,
			MaxFileSize: maxFileSize,
		})
}

// resolveRoot makes root absolute and checks it names a readable
// directory. Sync refuses a bad root up front rather than treating it as
// an empty tree, which would schedule the deletion of every record under
// it.
func (c *Client) resolveRoot(root string) (string, error) {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	if err := validation.ValidateRoot(c.fsys, root); err != nil {
		return "", err
	}
	return filepath.Clean(root), nil
}
