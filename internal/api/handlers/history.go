package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/gyanguru-api/internal/api/middleware"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/session"
	"github.com/gin-gonic/gin"
)

type HistoryHandler struct{}

func NewHistoryHandler() *HistoryHandler {
	return &HistoryHandler{}
}

// List returns the history of the profile, newest first, optionally filtered by topic and type
func (h *HistoryHandler) List(c *gin.Context) {
	state, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	filter := session.Filter{Query: c.Query(historyQueryParam)}
	if raw := c.Query(historyTypeParam); raw != "" {
		modality, err := models.ParseModality(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Type = modality
	}

	items := state.History(filter)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// Delete removes one history item
func (h *HistoryHandler) Delete(c *gin.Context) {
	state, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}

	id := c.Param("id")
	err := state.DeleteHistoryItem(c.Request.Context(), id)
	if errors.Is(err, session.ErrHistoryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "History item not found"})
		return
	}
	if err != nil {
		respondError(c, "Failed to delete history item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "History item deleted", "id": id})
}
