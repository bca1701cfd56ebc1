package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/syncwell/treesync/synctypes"
)

// Int64Ptr returns a pointer to the given int64.
// This is useful for building record metadata in tests.
func Int64Ptr(i int64) *int64 {
	return &i
}

// Float64Ptr returns a pointer to the given float64.
// This is useful for building record metadata in tests.
func Float64Ptr(f float64) *float64 {
	return &f
}

// Sha256Hex returns the lowercase hex sha256 digest of data.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteTree writes files under root on fsys. Map keys are
// slash-separated paths relative to root; values are file contents.
func WriteTree(t *testing.T, fsys billy.Filesystem, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := util.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// RecordFor builds the store record a completed sync of path would
// leave behind: hash of the current content, size and mtime from the
// current stat. Tests mutate the returned record to describe stale or
// partial remote state.
func RecordFor(t *testing.T, fsys billy.Filesystem, path string) synctypes.FileRecord {
	t.Helper()

	data, err := util.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	info, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}

	id := filepath.ToSlash(path)
	size := info.Size()
	mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)

	return synctypes.FileRecord{
		ExternalID: id,
		Metadata: synctypes.RecordMetadata{
			Path:  id,
			Hash:  Sha256Hex(data),
			Size:  &size,
			MTime: &mtime,
		},
	}
}
