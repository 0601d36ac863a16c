// Package store persists one collection document: an ordered mapping from
// entry key to entry body, backed by a single YAML file.
//
// The document is rewritten whole on every save. Entries that are not being
// edited keep their body and their relative position, so hand-ordered files
// survive API edits. A missing backing file surfaces as ErrNotFound; callers
// decide whether that means "empty" (update) or "no such entry" (read).
package store
