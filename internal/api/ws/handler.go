package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/crazyserver/homeassistant-core/internal/domain/collection"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler manages WebSocket connections
type Handler struct {
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	collections []*collection.Collection
}

// NewHandler creates a new WebSocket handler
func NewHandler(logger *logging.Logger, metrics *monitoring.Metrics, collections ...*collection.Collection) *Handler {
	return &Handler{
		logger:      logger,
		metrics:     metrics,
		collections: collections,
	}
}

// HandleConnection handles WebSocket upgrade and event streaming
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	var writeMu sync.Mutex
	send := func(data interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(data)
	}

	// Fan the collection event streams into this connection. Subscriptions
	// are in place before the welcome message so a client that has read it
	// misses no later event.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, col := range h.collections {
		events, cancel := col.Subscribe()
		defer cancel()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					send(map[string]interface{}{
						"type":       event.Type,
						"collection": event.Collection,
						"entity_id":  event.EntityID,
						"state":      event.State,
						"timestamp":  time.Now().Unix(),
					})
				}
			}
		}()
	}

	send(map[string]interface{}{
		"type":    "system",
		"message": "Connected to Config Editor Service (Go)",
	})

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg["type"] == "ping" {
			send(map[string]interface{}{"type": "pong"})
		}
	}

	close(done)
	wg.Wait()
}
