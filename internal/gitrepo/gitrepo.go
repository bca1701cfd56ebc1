// Package gitrepo adapts git working copies for file discovery.
//
// It shells out to the git CLI rather than reading repository internals:
// `git ls-files` is the authority on what is tracked and what the
// repository's own exclude machinery filters out. Every operation
// degrades rather than fails - a missing binary, a non-repository
// directory, or a command error all report "not a repository" or an
// empty listing so discovery can fall back to walking the tree.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/syncwell/treesync/synctypes"
)

// commandTimeout caps each git invocation so a wedged repository
// (stale lock, slow filesystem) cannot stall discovery indefinitely.
const commandTimeout = 30 * time.Second

// Adapter answers repository questions by invoking the git CLI.
// Detection results are cached for the lifetime of the process;
// ignore filters are cached per directory and refresh themselves
// when the underlying pattern file changes.
type Adapter struct {
	log *slog.Logger

	gitOnce sync.Once
	gitPath string

	mu      sync.Mutex
	repos   map[string]bool
	filters map[string]*Filter
}

var _ synctypes.RepositoryAdapter = (*Adapter)(nil)

// New creates an Adapter. The logger is used for degraded-path
// diagnostics only; pass nil to use the process default.
func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		log:     log,
		repos:   make(map[string]bool),
		filters: make(map[string]*Filter),
	}
}

// git resolves the git binary once per process. An empty result means
// git is not installed and every repository check answers false.
func (a *Adapter) git() string {
	a.gitOnce.Do(func() {
		path, err := exec.LookPath("git")
		if err != nil {
			a.log.Debug("git binary not found, repository detection disabled", "error", err)
			return
		}
		a.gitPath = path
	})
	return a.gitPath
}

// IsRepository reports whether dir is inside a git working tree.
// The answer is cached per directory for the lifetime of the process.
func (a *Adapter) IsRepository(ctx context.Context, dir string) bool {
	dir = filepath.Clean(dir)

	a.mu.Lock()
	if cached, ok := a.repos[dir]; ok {
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	inside := a.detect(ctx, dir)

	a.mu.Lock()
	a.repos[dir] = inside
	a.mu.Unlock()

	return inside
}

func (a *Adapter) detect(ctx context.Context, dir string) bool {
	if a.git() == "" {
		return false
	}

	out, err := a.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		// Exit status 128 is the normal outside-a-repository answer.
		a.log.Debug("git repository detection negative", "dir", dir, "error", err)
		return false
	}

	return strings.TrimSpace(string(out)) == "true"
}

// ListFiles returns the absolute paths of all files git considers part
// of the working tree under dir: tracked files plus untracked files
// that are not excluded by the repository's ignore configuration.
// Any failure yields an empty listing.
func (a *Adapter) ListFiles(ctx context.Context, dir string) []string {
	dir = filepath.Clean(dir)

	if a.git() == "" {
		return nil
	}

	out, err := a.run(ctx, dir, "ls-files", "--cached", "--others", "--exclude-standard", "-z")
	if err != nil {
		a.log.Warn("git ls-files failed, treating repository as empty", "dir", dir, "error", err)
		return nil
	}

	entries := strings.Split(string(out), "\x00")
	files := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		// Merge conflicts repeat index entries, one per stage.
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		files = append(files, filepath.Join(dir, filepath.FromSlash(entry)))
	}

	return files
}

// IgnoreFilter returns the pattern filter for dir, creating it on
// first use. Filters are shared, so additions through Add are visible
// to every caller holding the same directory's filter.
func (a *Adapter) IgnoreFilter(dir string) synctypes.IgnoreFilter {
	dir = filepath.Clean(dir)

	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.filters[dir]
	if !ok {
		f = newFilter(dir, a.log)
		a.filters[dir] = f
	}
	return f
}

// run executes git with dir as the working directory, returning stdout.
// Stderr is folded into the error for diagnostics.
func (a *Adapter) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.gitPath, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}
