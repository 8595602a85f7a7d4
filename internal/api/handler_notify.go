package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard-notify-backend/internal/mw"
	"jobboard-notify-backend/internal/notification"
)

func badBody(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// NotifyNewJob handles POST /notify/new-job.
func (h *Handler) NotifyNewJob(c *gin.Context) {
	var ev notification.NewJob
	if err := c.ShouldBindJSON(&ev); err != nil {
		badBody(c)
		return
	}

	res, err := h.notifier.NewJob(c.Request.Context(), mw.CallerID(c), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sent": res.Sent})
}

// NotifyNewApplication handles POST /notify/new-application.
func (h *Handler) NotifyNewApplication(c *gin.Context) {
	var ev notification.NewApplication
	if err := c.ShouldBindJSON(&ev); err != nil {
		badBody(c)
		return
	}

	res, err := h.notifier.NewApplication(c.Request.Context(), mw.CallerID(c), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sent": res.Sent})
}

// NotifyApplicationAccepted handles POST /notify/application-accepted.
func (h *Handler) NotifyApplicationAccepted(c *gin.Context) {
	var ev notification.ApplicationAccepted
	if err := c.ShouldBindJSON(&ev); err != nil {
		badBody(c)
		return
	}

	res, err := h.notifier.ApplicationAccepted(c.Request.Context(), mw.CallerID(c), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sent": res.Sent})
}

// NotifyTest handles POST /notify/test. The body is optional.
func (h *Handler) NotifyTest(c *gin.Context) {
	var ev notification.Test
	if err := bindOptionalJSON(c, &ev); err != nil {
		badBody(c)
		return
	}

	res, err := h.notifier.Test(c.Request.Context(), mw.CallerID(c), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"sentFCM":     res.SentNative > 0,
		"sentWebPush": res.SentWebPush > 0,
		"hasToken":    res.HasToken,
		"hasSub":      res.HasSubscription,
	})
}
