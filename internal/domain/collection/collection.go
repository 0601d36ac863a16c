package collection

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/crazyserver/homeassistant-core/internal/domain/registry"
	"github.com/crazyserver/homeassistant-core/internal/domain/store"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/monitoring"
)

// State is the run state of a live entity.
type State string

const (
	// StateOff marks an idle, runnable entity.
	StateOff State = "off"
	// StateUnavailable marks an entity whose stored body no longer
	// validates. It stays registered so the frontend can surface it.
	StateUnavailable State = "unavailable"
)

// Entity is one live member of the collection.
type Entity struct {
	EntityID string `json:"entity_id"`
	Key      string `json:"key"`
	Alias    string `json:"alias,omitempty"`
	State    State  `json:"state"`
}

// Event describes a change to the live collection.
type Event struct {
	Type       string `json:"type"` // state_changed | entity_removed
	Collection string `json:"collection"`
	EntityID   string `json:"entity_id"`
	State      State  `json:"state,omitempty"`
}

// Validator checks one entry body during reconciliation.
type Validator interface {
	Validate(key string, body map[string]interface{}) (yaml.MapSlice, error)
}

// Collection reconciles live entities from the persisted document.
type Collection struct {
	domain    string
	store     *store.Store
	registry  *registry.Registry
	validator Validator
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	mu       sync.RWMutex
	entities map[string]*Entity // by entry key

	signals chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates an empty live collection.
func New(domain string, st *store.Store, reg *registry.Registry, v Validator, logger *logging.Logger) *Collection {
	return &Collection{
		domain:    domain,
		store:     st,
		registry:  reg,
		validator: v,
		logger:    logger,
		entities:  make(map[string]*Entity),
		signals:   make(chan struct{}, 1),
		subs:      make(map[int]chan Event),
	}
}

// WithMetrics adds metrics tracking to the collection.
func (c *Collection) WithMetrics(metrics *monitoring.Metrics) *Collection {
	c.metrics = metrics
	return c
}

// Domain returns the collection name.
func (c *Collection) Domain() string {
	return c.domain
}

// DocumentChanged implements the editor's reload notifier. The signal is
// coalescing and never blocks the caller.
func (c *Collection) DocumentChanged(string) {
	select {
	case c.signals <- struct{}{}:
	default:
	}
}

// Run consumes reload signals until ctx is cancelled.
func (c *Collection) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.signals:
			c.Reconcile()
		}
	}
}

// Reconcile re-reads the document and brings the live entities in line.
func (c *Collection) Reconcile() {
	doc, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Error("Reload failed to read collection document",
				zap.String("collection", c.domain), zap.Error(err))
			return
		}
		doc = store.NewDocument()
	}

	var events []Event

	c.mu.Lock()
	seen := make(map[string]bool, doc.Len())
	for _, key := range doc.Keys() {
		seen[key] = true
		body, _ := doc.Get(key)
		entity := c.reconcileEntry(key, body)
		if prev, ok := c.entities[key]; !ok || prev.State != entity.State {
			events = append(events, Event{
				Type:       "state_changed",
				Collection: c.domain,
				EntityID:   entity.EntityID,
				State:      entity.State,
			})
		}
		c.entities[key] = entity
	}
	for key, entity := range c.entities {
		if seen[key] {
			continue
		}
		delete(c.entities, key)
		c.registry.Remove(entity.EntityID)
		events = append(events, Event{
			Type:       "entity_removed",
			Collection: c.domain,
			EntityID:   entity.EntityID,
		})
	}
	live := len(c.entities)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordReload(c.domain)
		c.metrics.SetLiveEntities(c.domain, live)
	}
	for _, event := range events {
		c.publish(event)
	}
}

// reconcileEntry builds the live entity for one document entry. Bodies that
// fail validation yield an unavailable entity; the cause stays out of the
// logs because it is user configuration, not an operational fault.
func (c *Collection) reconcileEntry(key string, body interface{}) *Entity {
	entityID := c.domain + "." + key
	c.registry.GetOrCreate(entityID, c.domain)

	entity := &Entity{
		EntityID: entityID,
		Key:      key,
		State:    StateOff,
	}

	plain, ok := store.Plain(body).(map[string]interface{})
	if !ok {
		entity.State = StateUnavailable
		return entity
	}
	if alias, ok := plain["alias"].(string); ok {
		entity.Alias = alias
	}
	if _, err := c.validator.Validate(key, plain); err != nil {
		entity.State = StateUnavailable
	}
	return entity
}

// Get returns the live entity with the given entity ID.
func (c *Collection) Get(entityID string) (*Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entity := range c.entities {
		if entity.EntityID == entityID {
			entityCopy := *entity
			return &entityCopy, true
		}
	}
	return nil, false
}

// EntityIDs returns all live entity IDs, sorted.
func (c *Collection) EntityIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.entities))
	for _, entity := range c.entities {
		ids = append(ids, entity.EntityID)
	}
	sort.Strings(ids)
	return ids
}

// List returns all live entities, sorted by entity ID.
func (c *Collection) List() []*Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entities := make([]*Entity, 0, len(c.entities))
	for _, entity := range c.entities {
		entityCopy := *entity
		entities = append(entities, &entityCopy)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].EntityID < entities[j].EntityID
	})
	return entities
}

// Len returns the number of live entities.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// Subscribe returns a channel of collection events and a cancel function.
// Slow subscribers drop events instead of blocking reconciliation.
func (c *Collection) Subscribe() (<-chan Event, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, 16)
	c.subs[id] = ch

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Collection) publish(event Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, sub := range c.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
