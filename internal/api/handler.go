package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"jobboard-notify-backend/internal/notification"
	"jobboard-notify-backend/internal/store"
)

// Notifier is the fan-out surface the handlers drive.
type Notifier interface {
	NewJob(ctx context.Context, caller string, ev notification.NewJob) (notification.Result, error)
	NewApplication(ctx context.Context, caller string, ev notification.NewApplication) (notification.Result, error)
	ApplicationAccepted(ctx context.Context, caller string, ev notification.ApplicationAccepted) (notification.Result, error)
	Test(ctx context.Context, caller string, ev notification.Test) (notification.Result, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	notifier Notifier
	store    store.Store
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(n Notifier, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		notifier: n,
		store:    s,
		webpush:  webpushOptions,
	}
}

// respondError maps an operation error to its HTTP status.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notification.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, notification.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindOptionalJSON decodes the body into v when there is one.
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
