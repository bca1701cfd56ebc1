package reconcile

import (
	"context"
	"sync"

	"github.com/syncwell/treesync/synctypes"
)

// DefaultConcurrency is the worker pool size used when the caller does
// not configure one.
const DefaultConcurrency = 20

// tracker owns the shared counters for one reconciliation. Every
// completed unit passes through record, which updates the counters and
// fires the progress callback as a single step under the lock, so an
// observer never sees a counter move without its event.
type tracker struct {
	mu        sync.Mutex
	progress  synctypes.ProgressFunc
	total     int
	processed int
	uploaded  int
	deleted   int
	errors    int
	lastError string
}

func newTracker(total int, progress synctypes.ProgressFunc) *tracker {
	return &tracker{total: total, progress: progress}
}

// record accounts for one settled unit. Exactly one call per unit.
func (t *tracker) record(filePath string, uploaded, deleted bool, unitErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed++
	if uploaded {
		t.uploaded++
	}
	if deleted {
		t.deleted++
	}
	if unitErr != nil {
		t.errors++
		t.lastError = unitErr.Error()
	}

	if t.progress != nil {
		t.progress(synctypes.ProgressEvent{
			Processed: t.processed,
			Uploaded:  t.uploaded,
			Deleted:   t.deleted,
			Errors:    t.errors,
			Total:     t.total,
			FilePath:  filePath,
			LastError: t.lastError,
		})
	}
}

// snapshot returns the counters accumulated so far.
func (t *tracker) snapshot() synctypes.SyncResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	return synctypes.SyncResult{
		Processed: t.processed,
		Uploaded:  t.uploaded,
		Deleted:   t.deleted,
		Errors:    t.errors,
		Total:     t.total,
	}
}

// executor runs work units with bounded concurrency.
type executor struct {
	semaphore chan struct{}
}

func newExecutor(maxConcurrency int) *executor {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}
	return &executor{semaphore: make(chan struct{}, maxConcurrency)}
}

// run executes the units, at most maxConcurrency at a time. When the
// context is cancelled no further units are scheduled; units already
// running finish and are accounted for. The returned error is the
// context's error when scheduling stopped early, nil otherwise.
func (e *executor) run(ctx context.Context, units []func(context.Context)) error {
	var wg sync.WaitGroup

	var stopped error
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			stopped = err
			break
		}

		select {
		case e.semaphore <- struct{}{}:
		case <-ctx.Done():
			stopped = ctx.Err()
		}
		if stopped != nil {
			break
		}

		wg.Add(1)
		go func(unit func(context.Context)) {
			defer func() {
				<-e.semaphore
				wg.Done()
			}()
			unit(ctx)
		}(unit)
	}

	wg.Wait()
	return stopped
}
