// Package registry tracks entity registry entries: the stable 32-hex entry
// IDs the frontend stores in place of entity IDs. The config validator
// resolves those references back to entity IDs before persisting.
package registry
