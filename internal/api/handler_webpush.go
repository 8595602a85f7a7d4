package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/mw"
)

type subscribeRequest struct {
	Subscription json.RawMessage `json:"subscription"`
}

// Subscribe handles POST /webpush/subscribe, replacing any previous
// subscription of the caller.
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Subscription) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription is required"})
		return
	}

	var sub webpush.Subscription
	if err := json.Unmarshal(req.Subscription, &sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription is malformed"})
		return
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription needs endpoint, keys.p256dh and keys.auth"})
		return
	}

	now := time.Now().UTC()
	record := model.WebPushSubscription{
		UserID:    mw.CallerID(c),
		Endpoint:  sub.Endpoint,
		P256DH:    sub.Keys.P256dh,
		Auth:      sub.Keys.Auth,
		Raw:       string(req.Subscription),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.SaveWebPushSubscription(c.Request.Context(), &record); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Unsubscribe handles POST /webpush/unsubscribe.
func (h *Handler) Unsubscribe(c *gin.Context) {
	if err := h.store.DeleteWebPushSubscription(c.Request.Context(), mw.CallerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
