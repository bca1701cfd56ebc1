package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/pool"
	"github.com/syncwell/treesync/synctypes"
)

// action is the outcome of classifying one candidate.
type action int

const (
	// actionUpload means the file's content must be sent to the store.
	actionUpload action = iota

	// actionSkipLarge means the file exceeds the configured size limit.
	actionSkipLarge

	// actionSkipEmpty means the file has no content to sync.
	actionSkipEmpty

	// actionSkipUnchanged means size and mtime matched the record.
	actionSkipUnchanged

	// actionSkipSameHash means the content hash matched the record.
	actionSkipSameHash
)

// verdict carries the classification and the local facts that feed the
// upload metadata when the action is actionUpload.
type verdict struct {
	action action
	hash   string
	size   int64
	mtime  float64
}

// classify decides what to do with one candidate file.
//
// The decision ladder reads cheapest-first:
//  1. files over the size limit are skipped without reading;
//  2. empty files are skipped without reading;
//  3. a record whose Size and MTime both exactly match the local stat
//     proves the file unchanged without reading;
//  4. otherwise the content is hashed and compared with the record's
//     hash; only a missing or differing hash forces an upload.
func classify(fsys billy.Filesystem, cand Candidate, maxFileSize int64) (verdict, error) {
	info, err := fsys.Stat(cand.Path)
	if err != nil {
		return verdict{}, errors.NewPathError("classify", cand.Path, err)
	}
	if info.IsDir() {
		return verdict{}, errors.NewError("classify", errors.ErrInvalidInput).
			WithPath(cand.Path).
			WithMessage("candidate is not a regular file")
	}

	v := verdict{
		size:  info.Size(),
		mtime: modtimeSeconds(info.ModTime()),
	}

	if maxFileSize > 0 && v.size > maxFileSize {
		v.action = actionSkipLarge
		return v, nil
	}

	if v.size == 0 {
		v.action = actionSkipEmpty
		return v, nil
	}

	if unchanged(cand.Record, v.size, v.mtime) {
		v.action = actionSkipUnchanged
		return v, nil
	}

	hash, err := hashFile(fsys, cand.Path)
	if err != nil {
		return verdict{}, errors.NewPathError("classify", cand.Path, err)
	}
	v.hash = hash

	if cand.Record != nil && cand.Record.Metadata.Hash == hash {
		v.action = actionSkipSameHash
		return v, nil
	}

	v.action = actionUpload
	return v, nil
}

// unchanged applies the metadata fast path: both fields must be present
// on the record and both must match exactly. A record missing either
// field never short-circuits; the content gets hashed instead.
func unchanged(rec *synctypes.FileRecord, size int64, mtime float64) bool {
	if rec == nil || rec.Metadata.Size == nil || rec.Metadata.MTime == nil {
		return false
	}
	return *rec.Metadata.Size == size && *rec.Metadata.MTime == mtime
}

// hashFile streams the file through sha256 using a pooled buffer and
// returns the lowercase hex digest.
func hashFile(fsys billy.Filesystem, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// modtimeSeconds renders a modification time as fractional seconds
// since the epoch. The same rendering is written into upload metadata,
// so the fast-path comparison round-trips exactly.
func modtimeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
