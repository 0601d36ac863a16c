// Package script defines the script collection: its entry schema and the
// validator run on every candidate entry body before it is persisted.
//
// Validation expands blueprint references first, then applies the schema,
// then resolves embedded entity registry entry references. Every failure is
// a user input error carried back to the caller; none of them are logged.
package script
