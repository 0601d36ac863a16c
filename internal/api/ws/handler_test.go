package ws

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crazyserver/homeassistant-core/internal/domain/blueprint"
	"github.com/crazyserver/homeassistant-core/internal/domain/collection"
	"github.com/crazyserver/homeassistant-core/internal/domain/registry"
	"github.com/crazyserver/homeassistant-core/internal/domain/script"
	"github.com/crazyserver/homeassistant-core/internal/domain/store"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
)

func newTestCollection(t *testing.T) *collection.Collection {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "scripts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("moon:\n  sequence: []\n"), 0o644))

	reg := registry.New()
	st := store.New(path)
	validator := script.NewValidator(reg, blueprint.NewStore(filepath.Join(dir, "blueprints")))
	return collection.New(script.Domain, st, reg, validator, logging.NewNop())
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	col := newTestCollection(t)
	handler := NewHandler(logging.NewNop(), nil, col)

	router := gin.New()
	router.GET("/stream", handler.HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, "system", msg["type"])

	col.Reconcile()

	msg = readMessage(t, conn)
	assert.Equal(t, "state_changed", msg["type"])
	assert.Equal(t, "script", msg["collection"])
	assert.Equal(t, "script.moon", msg["entity_id"])
	assert.Equal(t, "off", msg["state"])
}

func TestPing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewHandler(logging.NewNop(), nil)
	router := gin.New()
	router.GET("/stream", handler.HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, "system", msg["type"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "ping"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "pong", msg["type"])
}
