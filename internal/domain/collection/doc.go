// Package collection owns the live entities of one config collection.
//
// It consumes reload signals and reconciles running entities against the
// persisted document: valid entries run idle, entries that no longer pass
// validation turn unavailable, and removed entries are destroyed together
// with their registry entries. Reconciliation is idempotent, so duplicate
// signals for one change are harmless.
package collection
