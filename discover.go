// Package treesync provides the public discovery and ignore-resolution API.
package treesync

import (
	"context"
	"path/filepath"

	"github.com/syncwell/treesync/errors"
)

// Discover returns the absolute paths of the files a sync would consider
// under root, before ignore rules are applied. When root is inside a git
// work tree the repository's own file listing is used; otherwise the tree
// is walked directly, skipping hidden entries and never descending into
// symbolic links.
//
// A root that does not exist or cannot be read yields an empty result,
// not an error; the condition is logged. The error return covers invalid
// input only.
func (c *Client) Discover(ctx context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, errors.NewValidationError("discover", "root cannot be empty")
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return c.finder.Files(ctx, root), nil
}

// IsIgnored reports whether path would be excluded from a sync scoped to
// root. Hidden path segments are always excluded and cannot be negated;
// otherwise the cascading pattern-file rules from root down to path's
// parent decide, with the last matching rule winning.
func (c *Client) IsIgnored(path, root string) bool {
	return c.resolver.IsIgnored(path, root)
}

// LoadIgnoreRules warms the ignore-rule cache for root's own directory.
// Calling it is optional and idempotent; rules load lazily on first query
// otherwise, and deeper directories always compile on demand.
func (c *Client) LoadIgnoreRules(root string) {
	c.resolver.LoadRules(root)
}
