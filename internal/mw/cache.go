package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// snapshot is what PublicCache keeps per path.
type snapshot struct {
	status      int
	contentType string
	body        []byte
}

// teeWriter copies everything the handler writes into buf.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PublicCache caches successful GET responses of public routes. Requests that
// carry credentials bypass it so a caller-specific body is never shared.
func PublicCache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if v, ok := store.Get(path); ok {
			snap := v.(snapshot)
			c.Header("X-Cache", "HIT")
			c.Data(snap.status, snap.contentType, snap.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tee
		c.Next()

		status := tee.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		store.Set(path, snapshot{
			status:      status,
			contentType: tee.Header().Get("Content-Type"),
			body:        bytes.Clone(tee.buf.Bytes()),
		}, ttl)
	}
}
