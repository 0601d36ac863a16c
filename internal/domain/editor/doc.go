// Package editor orchestrates single-entry edits of a collection document:
// load, validate, persist, then signal the live collection to reload.
//
// All operations on one editor serialize on a single mutex spanning the
// load-modify-save critical section, so concurrent edits cannot drop each
// other's writes. The reload signal is emitted after the document is durably
// persisted and is never awaited.
package editor
