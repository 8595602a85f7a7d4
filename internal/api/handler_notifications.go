package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobboard-notify-backend/internal/mw"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// ListNotifications handles GET /notifications for the caller's own feed.
func (h *Handler) ListNotifications(c *gin.Context) {
	limit := defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxFeedLimit)
	}

	records, err := h.store.ListNotifications(c.Request.Context(), mw.CallerID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.store.MarkNotificationRead(c.Request.Context(), c.Param("id"), mw.CallerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
