// Package treesync indexes a local directory tree into a remote
// content-addressed store and keeps the two in step across repeated runs.
// It discovers files (using git's own view of a work tree when the root is
// a repository), applies hierarchical gitignore-style ignore rules, and
// reconciles the surviving files against the store's records: unchanged
// files are skipped, new and modified files are uploaded, and records whose
// local file has disappeared are deleted.
//
// The module emphasizes safe re-runs through cheap change detection:
// stored size and modification time settle most files without reading
// them, and a SHA-256 content hash decides the rest.
//
// Key features:
//   - Git-aware discovery that honors the repository's own ignore rules
//   - Cascading .gitignore/.syncignore resolution with negation support
//   - Metadata fast path, hash fallback, and size-capped uploads
//   - Concurrent reconciliation with per-file progress reporting
//   - Dry-run mode that counts every decision without touching the store
//
// Example usage:
//
//	store, err := s3store.New(ctx, "my-bucket")
//	if err != nil {
//	    return err
//	}
//
//	client, err := treesync.New(store)
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Sync(ctx, "docs", "/home/me/notes")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %d of %d files\n", result.Uploaded, result.Total)
package treesync
