package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/synctypes"
)

// Options tunes a single reconciliation run.
type Options struct {
	// DryRun counts and reports work without calling the store.
	DryRun bool

	// Progress, when set, receives one event per settled unit.
	Progress synctypes.ProgressFunc

	// Concurrency is the worker pool size; zero means DefaultConcurrency.
	Concurrency int

	// MaxFileSize skips files larger than this many bytes; zero means
	// no limit.
	MaxFileSize int64
}

// Reconciler executes sync plans against a store.
type Reconciler struct {
	fsys  billy.Filesystem
	store synctypes.Store
	log   *slog.Logger
}

// New creates a Reconciler reading file content from fsys and writing
// through store.
func New(fsys billy.Filesystem, store synctypes.Store, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{fsys: fsys, store: store, log: log}
}

// Run reconciles the discovered local files with the remote records and
// returns the final counters.
//
// Every planned unit settles exactly once: skipped, uploaded, deleted,
// or failed. Unit failures are counted in the result, never returned as
// an error. The only error Run reports is early termination through the
// context, in which case the partial result is still returned.
func (r *Reconciler) Run(
	ctx context.Context,
	storeID, root string,
	locals []string,
	remote []synctypes.FileRecord,
	opts Options,
) (*synctypes.SyncResult, error) {
	start := time.Now()

	plan := BuildPlan(root, locals, remote)
	r.log.Info("reconciliation planned",
		"store_id", storeID,
		"root", root,
		"candidates", len(plan.Candidates),
		"deletions", len(plan.Deletions),
		"dry_run", opts.DryRun)

	tr := newTracker(plan.Total, opts.Progress)

	units := make([]func(context.Context), 0, plan.Total)
	for _, cand := range plan.Candidates {
		units = append(units, func(ctx context.Context) {
			r.processCandidate(ctx, storeID, cand, opts, tr)
		})
	}
	for _, rec := range plan.Deletions {
		units = append(units, func(ctx context.Context) {
			r.processDeletion(ctx, storeID, rec, opts, tr)
		})
	}

	stopErr := newExecutor(opts.Concurrency).run(ctx, units)

	result := tr.snapshot()
	result.Duration = time.Since(start)

	r.log.Info("reconciliation finished",
		"store_id", storeID,
		"processed", result.Processed,
		"uploaded", result.Uploaded,
		"deleted", result.Deleted,
		"errors", result.Errors,
		"total", result.Total,
		"duration", result.Duration)

	if stopErr != nil {
		return &result, errors.NewError("sync", stopErr).WithStoreID(storeID).WithPath(root)
	}
	return &result, nil
}

// processCandidate settles one local file: classify, then upload or
// skip. Failures are recorded against the unit and never propagate.
func (r *Reconciler) processCandidate(
	ctx context.Context,
	storeID string,
	cand Candidate,
	opts Options,
	tr *tracker,
) {
	v, err := classify(r.fsys, cand, opts.MaxFileSize)
	if err != nil {
		r.log.Warn("candidate classification failed", "path", cand.Path, "error", err)
		tr.record(cand.Path, false, false, err)
		return
	}

	switch v.action {
	case actionSkipLarge:
		r.log.Debug("skipping file over size limit",
			"path", cand.Path, "size", v.size, "limit", opts.MaxFileSize)
		tr.record(cand.Path, false, false, nil)

	case actionSkipEmpty:
		r.log.Debug("skipping empty file", "path", cand.Path)
		tr.record(cand.Path, false, false, nil)

	case actionSkipUnchanged, actionSkipSameHash:
		tr.record(cand.Path, false, false, nil)

	case actionUpload:
		if opts.DryRun {
			r.log.Info("dry run: would upload", "path", cand.Path)
			tr.record(cand.Path, true, false, nil)
			return
		}
		if err := r.upload(ctx, storeID, cand, v); err != nil {
			r.log.Warn("upload failed", "path", cand.Path, "error", err)
			tr.record(cand.Path, false, false, err)
			return
		}
		tr.record(cand.Path, true, false, nil)
	}
}

// upload streams the file's content to the store together with the
// metadata a future run needs for its fast path.
func (r *Reconciler) upload(ctx context.Context, storeID string, cand Candidate, v verdict) error {
	f, err := r.fsys.Open(cand.Path)
	if err != nil {
		return errors.NewPathError("upload", cand.Path, err)
	}
	defer f.Close()

	size := v.size
	mtime := v.mtime
	req := synctypes.UploadRequest{
		ExternalID: cand.ExternalID,
		Overwrite:  true,
		Metadata: synctypes.RecordMetadata{
			Path:  cand.ExternalID,
			Hash:  v.hash,
			Size:  &size,
			MTime: &mtime,
		},
	}

	if err := r.store.Upload(ctx, storeID, f, req); err != nil {
		return errors.NewError("upload", err).WithStoreID(storeID).WithPath(cand.Path)
	}
	return nil
}

// processDeletion settles one remote-only record.
func (r *Reconciler) processDeletion(
	ctx context.Context,
	storeID string,
	rec synctypes.FileRecord,
	opts Options,
	tr *tracker,
) {
	if opts.DryRun {
		r.log.Info("dry run: would delete", "external_id", rec.ExternalID)
		tr.record(rec.ExternalID, false, true, nil)
		return
	}

	if err := r.store.Delete(ctx, storeID, rec.ExternalID); err != nil {
		r.log.Warn("delete failed", "external_id", rec.ExternalID, "error", err)
		wrapped := errors.NewError("delete", err).WithStoreID(storeID).WithPath(rec.ExternalID)
		tr.record(rec.ExternalID, false, false, wrapped)
		return
	}
	tr.record(rec.ExternalID, false, true, nil)
}
