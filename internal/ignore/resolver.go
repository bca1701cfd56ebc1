// Package ignore implements hierarchical, gitignore-style ignore resolution.
//
// Each directory may carry two pattern files (.gitignore and .syncignore,
// merged in that order). The resolver caches the compiled rule set per
// directory, fingerprinted by the pattern files' modification times, and
// answers "is path P ignored under root R" by cascading evaluation from the
// root down to the path's parent: a deeper directory's rules override
// shallower ones for paths inside its own subtree, and within one rule set the
// last matching rule wins. Hidden names (leading dot) are always ignored and
// no pattern can negate that.
package ignore

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/syncwell/treesync/synctypes"
)

// hiddenPrefix marks names that are unconditionally excluded.
const hiddenPrefix = "."

// Resolver answers ignore queries over a filesystem. It is safe for
// concurrent use.
type Resolver struct {
	fsys       billy.Filesystem
	log        *slog.Logger
	categories []*Rule

	mu    sync.RWMutex
	cache map[string]*RuleSet
}

// NewResolver creates a resolver reading pattern files through fsys, applying
// the category configuration from cfg.
func NewResolver(fsys billy.Filesystem, cfg *synctypes.Config, log *slog.Logger) *Resolver {
	var ignoreCfg synctypes.IgnoreConfig
	if cfg != nil {
		ignoreCfg = cfg.Ignore
	}
	return &Resolver{
		fsys:       fsys,
		log:        log,
		categories: compileCategories(ignoreCfg),
		cache:      make(map[string]*RuleSet),
	}
}

// LoadRules primes the cache for root's own rule set. It is idempotent;
// deeper directories still compile lazily on first query.
func (r *Resolver) LoadRules(root string) {
	r.rulesFor(filepath.Clean(root))
}

// IsIgnored reports whether path is ignored under root.
//
// Precedence, highest first: hidden path segments (absolute, cannot be
// negated); then the merged enabled categories; then each ancestor
// directory's rules from root to the path's parent, every matching rule
// overwriting the decision. When nothing matches the path is not ignored.
func (r *Resolver) IsIgnored(path, root string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, hiddenPrefix) {
			return true
		}
	}

	isDir := r.isDir(path)

	ignored := false
	for _, rule := range r.categories {
		if rule.Matches(rel, isDir) {
			ignored = !rule.Negated
		}
	}

	for _, dir := range ancestorChain(root, path) {
		rs := r.rulesFor(dir)
		if len(rs.Rules) == 0 {
			continue
		}
		relToDir, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		relToDir = filepath.ToSlash(relToDir)
		for _, rule := range rs.Rules {
			if rule.Matches(relToDir, isDir) {
				ignored = !rule.Negated
			}
		}
	}

	return ignored
}

// rulesFor returns the cached rule set for dir, rebuilding it when the
// fingerprint no longer matches the pattern files on disk.
func (r *Resolver) rulesFor(dir string) *RuleSet {
	dir = filepath.Clean(dir)

	r.mu.RLock()
	rs, ok := r.cache[dir]
	r.mu.RUnlock()
	if ok && rs.fresh(r.fsys) {
		return rs
	}

	rs = loadRuleSet(r.fsys, dir, r.log)
	r.mu.Lock()
	r.cache[dir] = rs
	r.mu.Unlock()
	return rs
}

// isDir reports whether path names a directory. Symlinks are not followed, so
// a link to a directory does not count. A path that cannot be stat'ed is
// treated as a file.
func (r *Resolver) isDir(path string) bool {
	fi, err := r.fsys.Lstat(path)
	return err == nil && fi.IsDir()
}

// ancestorChain returns every directory from root down to path's parent,
// inclusive, in that order. Empty when path's parent is not under root.
func ancestorChain(root, path string) []string {
	parent := filepath.Dir(path)
	rel, err := filepath.Rel(root, parent)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	chain := []string{root}
	if rel == "." {
		return chain
	}
	cur := root
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		cur = filepath.Join(cur, seg)
		chain = append(chain, cur)
	}
	return chain
}
