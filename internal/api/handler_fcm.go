package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard-notify-backend/internal/mw"
)

type registerTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterToken handles POST /fcm/register.
func (h *Handler) RegisterToken(c *gin.Context) {
	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.store.SaveNativeToken(c.Request.Context(), mw.CallerID(c), strings.TrimSpace(req.Token)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UnregisterToken handles POST /fcm/unregister.
func (h *Handler) UnregisterToken(c *gin.Context) {
	if err := h.store.DeleteNativeToken(c.Request.Context(), mw.CallerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
