package gitrepo

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// patternFile is the per-directory pattern source the filter watches.
const patternFile = ".gitignore"

// fileStamp fingerprints a pattern file. Existence is part of the
// fingerprint so creating or deleting the file invalidates the cache
// the same way an edit does.
type fileStamp struct {
	exists bool
	mtime  int64
}

// Filter answers ignore queries for a single directory using the
// directory's pattern file plus any patterns added at runtime.
// The file's rules are reloaded whenever its modification time or
// existence changes; queries between changes hit the parsed cache.
type Filter struct {
	dir string
	log *slog.Logger

	mu       sync.Mutex
	primed   bool
	stamp    fileStamp
	filePats []gitignore.Pattern
	added    []gitignore.Pattern
	matcher  gitignore.Matcher
}

func newFilter(dir string, log *slog.Logger) *Filter {
	return &Filter{
		dir:     dir,
		log:     log,
		matcher: gitignore.NewMatcher(nil),
	}
}

// IsIgnored reports whether path matches the filter's patterns.
// The path may be absolute or relative to the filter's directory;
// paths outside the directory never match.
func (f *Filter) IsIgnored(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(f.dir, path)
		if err != nil {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}

	info, err := os.Lstat(filepath.Join(f.dir, filepath.FromSlash(rel)))
	isDir := err == nil && info.IsDir()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.refresh()
	return f.matcher.Match(strings.Split(rel, "/"), isDir)
}

// Add appends a pattern after the file's rules. Added patterns survive
// file reloads but not Clear.
func (f *Filter) Add(pattern string) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.added = append(f.added, gitignore.ParsePattern(pattern, nil))
	f.rebuild()
}

// Clear empties the filter, dropping both the file's rules and any
// added patterns. The pattern file's current state is recorded as
// seen, so cleared rules stay gone until the file actually changes.
func (f *Filter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stamp = f.stat()
	f.primed = true
	f.filePats = nil
	f.added = nil
	f.rebuild()
}

// refresh reloads the pattern file when its fingerprint changed.
// Callers must hold f.mu.
func (f *Filter) refresh() {
	current := f.stat()
	if f.primed && current == f.stamp {
		return
	}

	f.stamp = current
	f.primed = true
	f.filePats = nil

	if current.exists {
		f.filePats = f.load()
	}
	f.rebuild()
}

// load parses the pattern file, returning no patterns when it cannot
// be read.
func (f *Filter) load() []gitignore.Pattern {
	p := filepath.Join(f.dir, patternFile)
	data, err := os.ReadFile(p)
	if err != nil {
		f.log.Warn("ignore file unreadable, treating as empty", "path", p, "error", err)
		return nil
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

// rebuild recomposes the matcher from file rules followed by added
// patterns, preserving last-match-wins ordering across both sources.
// Callers must hold f.mu.
func (f *Filter) rebuild() {
	all := make([]gitignore.Pattern, 0, len(f.filePats)+len(f.added))
	all = append(all, f.filePats...)
	all = append(all, f.added...)
	f.matcher = gitignore.NewMatcher(all)
}

func (f *Filter) stat() fileStamp {
	info, err := os.Stat(filepath.Join(f.dir, patternFile))
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{exists: true, mtime: info.ModTime().UnixNano()}
}
