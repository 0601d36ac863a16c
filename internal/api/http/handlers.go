package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go.uber.org/zap"

	"github.com/crazyserver/homeassistant-core/internal/domain/blueprint"
	"github.com/crazyserver/homeassistant-core/internal/domain/collection"
	"github.com/crazyserver/homeassistant-core/internal/domain/editor"
	"github.com/crazyserver/homeassistant-core/internal/infrastructure/logging"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	editors     map[string]*editor.Editor
	collections map[string]*collection.Collection
	blueprints  *blueprint.Store
	logger      *logging.Logger
}

// NewHandlers creates an empty handler set
func NewHandlers(logger *logging.Logger) *Handlers {
	return &Handlers{
		editors:     make(map[string]*editor.Editor),
		collections: make(map[string]*collection.Collection),
		logger:      logger,
	}
}

// Register adds one collection's editor and live collection
func (h *Handlers) Register(ed *editor.Editor, col *collection.Collection) {
	h.editors[ed.Collection()] = ed
	h.collections[col.Domain()] = col
}

// RegisterBlueprints enables the blueprint listing endpoint
func (h *Handlers) RegisterBlueprints(store *blueprint.Store) {
	h.blueprints = store
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Config Editor Service (Go)",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	collections := gin.H{}
	for name, col := range h.collections {
		collections[name] = gin.H{"live_entities": col.Len()}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"collections": collections,
	})
}

// ListStates lists the live entities of one collection
func (h *Handlers) ListStates(c *gin.Context) {
	col, ok := h.collections[c.Param("collection")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown config section"})
		return
	}
	c.JSON(http.StatusOK, col.List())
}

// ListBlueprints lists the blueprint paths available for one collection
func (h *Handlers) ListBlueprints(c *gin.Context) {
	domain := c.Param("collection")
	if _, ok := h.collections[domain]; !ok || h.blueprints == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown config section"})
		return
	}

	paths, err := h.blueprints.List(domain)
	if err != nil {
		h.logger.Error("Blueprint listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading blueprints"})
		return
	}
	if paths == nil {
		paths = []string{}
	}
	c.JSON(http.StatusOK, paths)
}
