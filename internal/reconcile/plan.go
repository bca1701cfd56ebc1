package reconcile

import (
	"path/filepath"
	"strings"

	"github.com/syncwell/treesync/synctypes"
)

// Candidate pairs a local file with its remote record, when one exists.
type Candidate struct {
	// Path is the local filesystem path.
	Path string

	// ExternalID is the path in record-identity form (slash-separated).
	ExternalID string

	// Record is the matching remote record, nil for new files.
	Record *synctypes.FileRecord
}

// Plan is the complete set of work units for one reconciliation.
type Plan struct {
	// Candidates are all local files, one unit each regardless of
	// whether they end up uploaded or skipped.
	Candidates []Candidate

	// Deletions are remote records under the root with no local
	// counterpart. Records outside the root are never planned.
	Deletions []synctypes.FileRecord

	// Total is the number of planned units, fixed before execution.
	Total int
}

// BuildPlan derives the work plan from the discovered local files and
// the remote record listing. Duplicate local paths collapse to one
// unit; remote records are considered only within the root's subtree,
// so records belonging to other roots in the same store stay untouched.
func BuildPlan(root string, locals []string, remote []synctypes.FileRecord) *Plan {
	byID := make(map[string]*synctypes.FileRecord, len(remote))
	for i := range remote {
		byID[remote[i].ExternalID] = &remote[i]
	}

	plan := &Plan{}
	localIDs := make(map[string]struct{}, len(locals))
	for _, path := range locals {
		id := filepath.ToSlash(path)
		if _, dup := localIDs[id]; dup {
			continue
		}
		localIDs[id] = struct{}{}
		plan.Candidates = append(plan.Candidates, Candidate{
			Path:       path,
			ExternalID: id,
			Record:     byID[id],
		})
	}

	for _, rec := range remote {
		if !underRoot(rec.ExternalID, root) {
			continue
		}
		if _, exists := localIDs[rec.ExternalID]; exists {
			continue
		}
		plan.Deletions = append(plan.Deletions, rec)
	}

	plan.Total = len(plan.Candidates) + len(plan.Deletions)
	return plan
}

// underRoot reports whether a record identity lies strictly inside the
// root directory.
func underRoot(id, root string) bool {
	prefix := filepath.ToSlash(filepath.Clean(root))
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(id, prefix)
}
