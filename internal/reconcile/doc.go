// Package reconcile drives a local file set and a remote record set to
// agreement. It plans the work (uploads and deletions), classifies each
// candidate against its remote record, and executes the resulting units
// on a bounded worker pool with per-unit progress accounting.
//
// Reconciliation is resilient by construction: a failing unit is
// counted and reported, never fatal, and re-running an unchanged tree
// produces no writes.
package reconcile
