package ignore

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// patternFiles are the two pattern files read in every directory, in merge
// order: the second file's rules are appended after the first's, so within one
// directory the second file wins ties under last-match-wins evaluation.
var patternFiles = [2]string{".gitignore", ".syncignore"}

// fileStamp records the observed state of one pattern file so a cached rule
// set can detect both modification and creation/removal.
type fileStamp struct {
	exists bool
	mtime  int64
}

// RuleSet is the ordered rule list compiled from one directory's pattern
// files, plus the fingerprint of the files it was built from.
type RuleSet struct {
	Dir    string
	Rules  []*Rule
	stamps [2]fileStamp
}

// loadRuleSet reads and compiles the pattern files directly inside dir.
// Unreadable files degrade to no rules from that file; the failure is logged
// and never propagated.
func loadRuleSet(fsys billy.Filesystem, dir string, log *slog.Logger) *RuleSet {
	rs := &RuleSet{Dir: dir}
	for i, name := range patternFiles {
		p := filepath.Join(dir, name)
		fi, err := fsys.Stat(p)
		if err != nil {
			continue
		}
		rs.stamps[i] = fileStamp{exists: true, mtime: fi.ModTime().UnixNano()}

		data, err := util.ReadFile(fsys, p)
		if err != nil {
			log.Warn("ignore file unreadable, treating as empty", "path", p, "error", err)
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if rule := ParseRule(line, dir); rule != nil {
				rs.Rules = append(rs.Rules, rule)
			}
		}
	}
	return rs
}

// fresh reports whether the rule set's fingerprint still matches the on-disk
// pattern files, including files that appeared or disappeared since the build.
func (rs *RuleSet) fresh(fsys billy.Filesystem) bool {
	for i, name := range patternFiles {
		var cur fileStamp
		if fi, err := fsys.Stat(filepath.Join(rs.Dir, name)); err == nil {
			cur = fileStamp{exists: true, mtime: fi.ModTime().UnixNano()}
		}
		if cur != rs.stamps[i] {
			return false
		}
	}
	return true
}
