package ignore

import (
	"regexp"
	"strings"
)

// Rule is one compiled pattern-file line. AnchorDir is the directory containing
// the file that defined the rule; the rule only applies to paths inside that
// subtree. Category rules have an empty AnchorDir and match relative to the
// sync root.
type Rule struct {
	Pattern   string
	Negated   bool
	DirOnly   bool
	AnchorDir string

	// self matches the relative path itself, under matches paths below a
	// matching directory
	self  *regexp.Regexp
	under *regexp.Regexp
}

// ParseRule compiles one pattern-file line into a Rule. Blank lines, comments,
// and patterns that fail to compile yield nil.
func ParseRule(line, anchorDir string) *Rule {
	trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	rule := &Rule{AnchorDir: anchorDir}
	pattern := trimmed

	if strings.HasPrefix(pattern, "!") {
		rule.Negated = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		rule.DirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	// A leading slash anchors the pattern to the defining directory; so does a
	// slash anywhere else in the pattern. Slashless patterns match at any depth.
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	anchored = anchored || strings.Contains(pattern, "/")

	if pattern == "" {
		return nil
	}
	rule.Pattern = pattern

	base := globToRegex(pattern)
	var selfExpr, underExpr string
	if anchored {
		selfExpr = "^" + base + "$"
		underExpr = "^" + base + "/"
	} else {
		selfExpr = "^(?:.*/)?" + base + "$"
		underExpr = "^(?:.*/)?" + base + "/"
	}

	self, err := regexp.Compile(selfExpr)
	if err != nil {
		return nil
	}
	under, err := regexp.Compile(underExpr)
	if err != nil {
		return nil
	}
	rule.self = self
	rule.under = under
	return rule
}

// Matches reports whether the rule matches rel, a slash-separated path relative
// to the rule's anchor. A directory-only rule matches the path itself only when
// the path is a directory; any rule also matches paths below a directory it
// names.
func (r *Rule) Matches(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return false
	}
	if r.self.MatchString(rel) && (!r.DirOnly || isDir) {
		return true
	}
	return r.under.MatchString(rel)
}

// globToRegex converts a gitignore-style glob into a regular expression
// fragment. `**` crosses directory boundaries, `*` and `?` do not. Bracket
// expressions are treated literally.
func globToRegex(pattern string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					// "**/" matches zero or more leading directories
					sb.WriteString("(?:.*/)?")
					i += 3
				} else {
					sb.WriteString(".*")
					i += 2
				}
			} else {
				sb.WriteString("[^/]*")
				i++
			}
		case '?':
			sb.WriteString("[^/]")
			i++
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}
