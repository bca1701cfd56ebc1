// Package discovery produces the candidate file set for a sync root.
//
// Inside a version-controlled tree it defers to the repository's own
// view of the project; everywhere else it walks the filesystem,
// skipping hidden names outright. Discovery is a best-effort snapshot:
// unreadable entries are logged and skipped, and an unusable root
// yields an empty set rather than an error.
package discovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/syncwell/treesync/synctypes"
)

// Finder locates candidate files under a root directory.
type Finder struct {
	fsys billy.Filesystem
	repo synctypes.RepositoryAdapter
	log  *slog.Logger
}

// New creates a Finder. The repository adapter may be nil, in which
// case every root is treated as a plain directory tree.
func New(fsys billy.Filesystem, repo synctypes.RepositoryAdapter, log *slog.Logger) *Finder {
	if log == nil {
		log = slog.Default()
	}
	return &Finder{fsys: fsys, repo: repo, log: log}
}

// Files returns the absolute paths of all candidate files under root.
//
// When root lies inside a repository the adapter's listing is returned
// verbatim; the version-control tool has already applied its own
// exclusion rules. Otherwise the tree is walked recursively: hidden
// entries (leading dot) are skipped and hidden directories are not
// descended, symlinks are reported as ordinary files and never
// followed, and a nonexistent or unreadable root yields an empty set.
func (f *Finder) Files(ctx context.Context, root string) []string {
	root = filepath.Clean(root)

	if f.repo != nil && f.repo.IsRepository(ctx, root) {
		f.log.Debug("discovering files via repository listing", "root", root)
		return f.repo.ListFiles(ctx, root)
	}

	return f.walkTree(ctx, root)
}

func (f *Finder) walkTree(ctx context.Context, root string) []string {
	var files []string

	err := util.Walk(f.fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			f.log.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		hidden := path != root && strings.HasPrefix(info.Name(), ".")
		if info.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		f.log.Warn("file discovery incomplete", "root", root, "error", err)
	}

	return files
}
