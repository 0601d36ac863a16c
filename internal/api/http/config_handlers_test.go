package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crazyserver/homeassistant-core/internal/domain/blueprint"
	"github.com/crazyserver/homeassistant-core/internal/domain/collection"
	"github.com/crazyserver/homeassistant-core/internal/domain/editor"
	"github.com/crazyserver/homeassistant-core/internal/domain/registry"
	"github.com/crazyserver/homeassistant-core/internal/domain/script"
	"github.com/crazyserver/homeassistant-core/internal/domain/store"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
)

type fixture struct {
	router *gin.Engine
	col    *collection.Collection
	reg    *registry.Registry
	path   string
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T, initial string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	path := filepath.Join(dir, "scripts.yaml")
	if initial != "" {
		require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))
	}

	core, logs := observer.New(zapcore.InfoLevel)
	logger := logging.Wrap(zap.New(core))

	reg := registry.New()
	st := store.New(path)
	blueprints := blueprint.NewStore(filepath.Join(dir, "blueprints"))
	validator := script.NewValidator(reg, blueprints)
	col := collection.New(script.Domain, st, reg, validator, logger)
	ed := editor.New(script.Domain, st, validator, col, logger)

	handlers := NewHandlers(logger)
	handlers.Register(ed, col)
	handlers.RegisterBlueprints(blueprints)

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/api/states/:collection", handlers.ListStates)
	router.GET("/api/blueprints/:collection", handlers.ListBlueprints)
	api := router.Group("/api/config")
	api.GET("/:collection/config/:key", handlers.GetEntry)
	api.POST("/:collection/config/:key", handlers.UpdateEntry)
	api.DELETE("/:collection/config/:key", handlers.DeleteEntry)

	return &fixture{router: router, col: col, reg: reg, path: path, logs: logs}
}

func (f *fixture) do(t *testing.T, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

const twoScripts = `sun:
  alias: Sun
moon:
  sequence:
  - event: test_event
`

func TestGetEntry(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodGet, "/api/config/script/config/moon", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{
		"sequence": []interface{}{map[string]interface{}{"event": "test_event"}},
	}, body)
}

func TestGetEntryNotFound(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodGet, "/api/config/script/config/not_there", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Resource not found", message(t, w))
}

func TestGetEntryMissingDocument(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodGet, "/api/config/script/config/moon", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownCollection(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodGet, "/api/config/zone/config/moon", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unknown config section", message(t, w))
}

func TestUpdateEntry(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodPost, "/api/config/script/config/moon",
		`{"alias": "Moon updated", "sequence": []}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result": "ok"}`, w.Body.String())

	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)

	var doc yaml.MapSlice
	require.NoError(t, yaml.UnmarshalWithOptions(raw, &doc, yaml.UseOrderedMap()))
	require.Len(t, doc, 2)

	// Untouched entries keep their position and content.
	assert.Equal(t, "sun", doc[0].Key)
	sun, ok := doc[0].Value.(yaml.MapSlice)
	require.True(t, ok)
	require.Len(t, sun, 1)
	assert.Equal(t, "alias", sun[0].Key)
	assert.Equal(t, "Sun", sun[0].Value)

	// The updated body is stored normalized, in canonical field order.
	assert.Equal(t, "moon", doc[1].Key)
	moon, ok := doc[1].Value.(yaml.MapSlice)
	require.True(t, ok)
	require.Len(t, moon, 2)
	assert.Equal(t, "alias", moon[0].Key)
	assert.Equal(t, "Moon updated", moon[0].Value)
	assert.Equal(t, "sequence", moon[1].Key)
}

func TestUpdateEntryCreatesDocument(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/config/script/config/moon",
		`{"sequence": []}`)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := os.Stat(f.path)
	assert.NoError(t, err)
}

func TestUpdateEntryMalformed(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodPost, "/api/config/script/config/moon",
		`{"alias": "no sequence"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t,
		"Message malformed: required key not provided @ data['sequence']",
		message(t, w))

	// The document is untouched and the cause never reached the logs.
	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, twoScripts, string(raw))
	assert.Zero(t, f.logs.Len())
}

func TestUpdateEntryUnknownRegistryRef(t *testing.T) {
	f := newFixture(t, twoScripts)

	ref := strings.Repeat("0123456789abcdef", 2)
	w := f.do(t, http.MethodPost, "/api/config/script/config/moon",
		`{"sequence": [{"service": "light.turn_on", "entity_id": "`+ref+`"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Message malformed: Unknown entity registry entry "+ref,
		message(t, w))
	assert.Zero(t, f.logs.Len())
}

func TestUpdateEntryResolvesRegistryRef(t *testing.T) {
	f := newFixture(t, twoScripts)
	entry := f.reg.GetOrCreate("light.kitchen", "light")

	w := f.do(t, http.MethodPost, "/api/config/script/config/moon",
		`{"sequence": [{"service": "light.turn_on", "entity_id": "`+entry.ID+`"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "light.kitchen")
	assert.NotContains(t, string(raw), entry.ID)
}

func TestUpdateEntryInvalidJSON(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodPost, "/api/config/script/config/moon", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON specified", message(t, w))
}

func TestUpdateEntryInvalidKey(t *testing.T) {
	f := newFixture(t, twoScripts)

	for _, key := range []string{"Moon", "moon-phase", "moon.phase"} {
		w := f.do(t, http.MethodPost, "/api/config/script/config/"+key,
			`{"sequence": []}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, key)
		assert.Equal(t, "Invalid key specified", message(t, w))
	}
}

func TestDeleteEntry(t *testing.T) {
	f := newFixture(t, twoScripts)
	f.col.Reconcile()
	require.Equal(t, 2, f.col.Len())

	w := f.do(t, http.MethodDelete, "/api/config/script/config/sun", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result": "ok"}`, w.Body.String())

	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sun")

	// The reload drops the live entity and its registry entry.
	f.col.Reconcile()
	assert.Equal(t, 1, f.col.Len())
	_, ok := f.reg.GetByEntityID("script.sun")
	assert.False(t, ok)
}

func TestDeleteEntryNotFound(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodDelete, "/api/config/script/config/not_there", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Resource not found", message(t, w))
}

func TestUpdateTriggersReload(t *testing.T) {
	f := newFixture(t, twoScripts)
	f.col.Reconcile()

	// "sun" has no sequence, so it reloads as unavailable.
	sun, ok := f.col.Get("script.sun")
	require.True(t, ok)
	assert.Equal(t, collection.StateUnavailable, sun.State)

	w := f.do(t, http.MethodPost, "/api/config/script/config/moon",
		`{"alias": "Moon updated", "sequence": []}`)
	require.Equal(t, http.StatusOK, w.Code)
	f.col.Reconcile()

	moon, ok := f.col.Get("script.moon")
	require.True(t, ok)
	assert.Equal(t, collection.StateOff, moon.State)
	assert.Equal(t, "Moon updated", moon.Alias)

	sun, ok = f.col.Get("script.sun")
	require.True(t, ok)
	assert.Equal(t, collection.StateUnavailable, sun.State)
}

func TestListStates(t *testing.T) {
	f := newFixture(t, twoScripts)
	f.col.Reconcile()

	w := f.do(t, http.MethodGet, "/api/states/script", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var entities []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entities))
	require.Len(t, entities, 2)
	assert.Equal(t, "script.moon", entities[0]["entity_id"])
	assert.Equal(t, "script.sun", entities[1]["entity_id"])

	w = f.do(t, http.MethodGet, "/api/states/zone", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBlueprints(t *testing.T) {
	f := newFixture(t, twoScripts)

	w := f.do(t, http.MethodGet, "/api/blueprints/script", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	dir := filepath.Join(filepath.Dir(f.path), "blueprints", "script")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notify.yaml"),
		[]byte("blueprint:\n  name: Notify\n  domain: script\nsequence: []\n"), 0o644))

	w = f.do(t, http.MethodGet, "/api/blueprints/script", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["notify.yaml"]`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/blueprints/zone", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t, twoScripts)
	f.col.Reconcile()

	w := f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	collections, ok := body["collections"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, collections, "script")
}
