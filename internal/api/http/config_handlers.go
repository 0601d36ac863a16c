package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crazyserver/homeassistant-core/internal/domain/editor"
	"github.com/crazyserver/homeassistant-core/internal/shared/utils"
)

// GetEntry returns one entry body, unvalidated
func (h *Handlers) GetEntry(c *gin.Context) {
	ed, ok := h.editors[c.Param("collection")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown config section"})
		return
	}

	body, err := ed.Get(c.Param("key"))
	if err != nil {
		if errors.Is(err, editor.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found"})
			return
		}
		h.logger.Error("Config read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading config"})
		return
	}

	c.JSON(http.StatusOK, body)
}

// UpdateEntry validates and stores one entry body
func (h *Handlers) UpdateEntry(c *gin.Context) {
	ed, ok := h.editors[c.Param("collection")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown config section"})
		return
	}

	key := c.Param("key")
	if err := utils.ValidateKey(key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid key specified"})
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON specified"})
		return
	}

	if err := ed.Update(key, body); err != nil {
		var malformed *editor.MalformedError
		if errors.As(err, &malformed) {
			// User input error: surfaced, never logged.
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Message malformed: " + malformed.Error(),
			})
			return
		}
		h.logger.Error("Config update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "ok"})
}

// DeleteEntry removes one entry
func (h *Handlers) DeleteEntry(c *gin.Context) {
	ed, ok := h.editors[c.Param("collection")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown config section"})
		return
	}

	if err := ed.Delete(c.Param("key")); err != nil {
		if errors.Is(err, editor.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found"})
			return
		}
		h.logger.Error("Config delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "ok"})
}
