// Package validation provides centralized input validation logic.
// This includes store identifier checks, sync root checks, and limits
// on tunable settings.
//
// All caller inputs are validated before any store or filesystem work
// starts, so a bad call fails fast instead of part-way through a sync.
package validation
