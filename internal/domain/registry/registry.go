package registry

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Entry is one registered entity.
type Entry struct {
	ID       string `json:"id"`
	EntityID string `json:"entity_id"`
	Platform string `json:"platform"`
	Name     string `json:"name,omitempty"`
}

// Registry holds entity registry entries, indexed by entry ID and entity ID.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]*Entry
	byEntityID map[string]*Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:       make(map[string]*Entry),
		byEntityID: make(map[string]*Entry),
	}
}

// GetOrCreate returns the entry for entityID, registering it first if needed.
func (r *Registry) GetOrCreate(entityID, platform string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.byEntityID[entityID]; ok {
		return copyOf(entry)
	}

	entry := &Entry{
		ID:       newEntryID(),
		EntityID: entityID,
		Platform: platform,
	}
	r.byID[entry.ID] = entry
	r.byEntityID[entityID] = entry
	return copyOf(entry)
}

// Get retrieves an entry by its 32-hex entry ID.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return copyOf(entry), true
}

// GetByEntityID retrieves an entry by entity ID.
func (r *Registry) GetByEntityID(entityID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byEntityID[entityID]
	if !ok {
		return nil, false
	}
	return copyOf(entry), true
}

// Remove drops the entry for entityID. Reports whether one existed.
func (r *Registry) Remove(entityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byEntityID[entityID]
	if !ok {
		return false
	}
	delete(r.byEntityID, entityID)
	delete(r.byID, entry.ID)
	return true
}

// List returns all entries.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.byID))
	for _, entry := range r.byID {
		entries = append(entries, copyOf(entry))
	}
	return entries
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// copyOf returns a copy to prevent external modifications.
func copyOf(entry *Entry) *Entry {
	c := *entry
	return &c
}

// newEntryID mints the 32-hex entry ID format used across the platform.
func newEntryID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
