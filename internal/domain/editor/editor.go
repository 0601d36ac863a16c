package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/crazyserver/homeassistant-core/internal/domain/store"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/monitoring"
)

// ErrEntryNotFound indicates a read or delete of an absent entry key.
var ErrEntryNotFound = errors.New("entry not found")

// MalformedError wraps a validation failure. Its message is the user-facing
// cause and is deliberately kept out of the log stream.
type MalformedError struct {
	Cause error
}

func (e *MalformedError) Error() string {
	return e.Cause.Error()
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

// Validator validates a candidate entry body and returns its normalized form.
type Validator interface {
	Validate(key string, body map[string]interface{}) (yaml.MapSlice, error)
}

// Notifier receives the reload signal after a successful write.
type Notifier interface {
	DocumentChanged(collection string)
}

// Editor edits one collection document.
type Editor struct {
	mu         sync.Mutex
	collection string
	store      *store.Store
	validator  Validator
	notifier   Notifier
	logger     *logging.Logger
	metrics    *monitoring.Metrics
}

// New creates an editor for one collection.
func New(collection string, st *store.Store, v Validator, n Notifier, logger *logging.Logger) *Editor {
	return &Editor{
		collection: collection,
		store:      st,
		validator:  v,
		notifier:   n,
		logger:     logger,
	}
}

// WithMetrics adds metrics tracking to the editor.
func (e *Editor) WithMetrics(metrics *monitoring.Metrics) *Editor {
	e.metrics = metrics
	return e
}

// Collection returns the collection name this editor serves.
func (e *Editor) Collection() string {
	return e.collection
}

// Get returns the stored body for key, unvalidated, as plain JSON-encodable
// types.
func (e *Editor) Get(key string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		e.logger.Error("Failed to load collection document",
			zap.String("collection", e.collection), zap.Error(err))
		return nil, fmt.Errorf("load %s config: %w", e.collection, err)
	}

	body, ok := doc.Get(key)
	if !ok {
		return nil, ErrEntryNotFound
	}
	return store.Plain(body), nil
}

// Update validates body and stores it under key, replacing any previous body
// entirely. On validation failure nothing is written and the failure is
// returned as a *MalformedError, which is never logged.
func (e *Editor) Update(key string, body map[string]interface{}) error {
	timer := monitoring.NewTimer(e.metrics, e.collection, "update")

	if err := e.update(key, body); err != nil {
		var malformed *MalformedError
		if errors.As(err, &malformed) {
			timer.Stop("malformed")
		} else {
			timer.Stop("error")
		}
		return err
	}

	timer.Stop("ok")
	e.notifier.DocumentChanged(e.collection)
	return nil
}

func (e *Editor) update(key string, body map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Error("Failed to load collection document",
				zap.String("collection", e.collection), zap.Error(err))
			return fmt.Errorf("load %s config: %w", e.collection, err)
		}
		doc = store.NewDocument()
	}

	normalized, err := e.validator.Validate(key, body)
	if err != nil {
		return &MalformedError{Cause: err}
	}

	doc.Set(key, normalized)
	if err := e.store.Save(doc); err != nil {
		e.logger.Error("Failed to persist collection document",
			zap.String("collection", e.collection), zap.Error(err))
		return fmt.Errorf("save %s config: %w", e.collection, err)
	}
	return nil
}

// Delete removes key from the document.
func (e *Editor) Delete(key string) error {
	timer := monitoring.NewTimer(e.metrics, e.collection, "delete")

	if err := e.delete(key); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			timer.Stop("not_found")
		} else {
			timer.Stop("error")
		}
		return err
	}

	timer.Stop("ok")
	e.notifier.DocumentChanged(e.collection)
	return nil
}

func (e *Editor) delete(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEntryNotFound
		}
		e.logger.Error("Failed to load collection document",
			zap.String("collection", e.collection), zap.Error(err))
		return fmt.Errorf("load %s config: %w", e.collection, err)
	}

	if !doc.Delete(key) {
		return ErrEntryNotFound
	}

	if err := e.store.Save(doc); err != nil {
		e.logger.Error("Failed to persist collection document",
			zap.String("collection", e.collection), zap.Error(err))
		return fmt.Errorf("save %s config: %w", e.collection, err)
	}
	return nil
}
