// Package internal contains private implementation details for treesync.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - discovery: file enumeration via directory walk or repository listing
//   - gitrepo: git CLI adapter for repository detection and ignore filters
//   - ignore: hierarchical gitignore-style rule resolution and caching
//   - reconcile: plan building, change classification, and bounded execution
//   - validation: input validation logic
//   - pool: memory management optimizations
//   - testutil: shared fakes and helpers for package tests
package internal
