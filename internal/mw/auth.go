package mw

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard-notify-backend/internal/identity"
	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/store"
)

const callerKey = "caller_id"

// UserLookup loads the user record holding the admin flag.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Gate authorizes requests. It has no side effects beyond the decision.
type Gate struct {
	verifier identity.Verifier
	users    UserLookup
}

func NewGate(verifier identity.Verifier, users UserLookup) *Gate {
	return &Gate{verifier: verifier, users: users}
}

// RequireAuth accepts any caller with a valid bearer token.
func (g *Gate) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequireAdmin accepts callers with a valid token whose user record is flagged admin.
func (g *Gate) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}

		user, err := g.users.GetUser(c.Request.Context(), CallerID(c))
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		case err != nil:
			log.Printf("Failed to load user %s for admin check: %v", CallerID(c), err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		case !user.IsAdmin:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func (g *Gate) authenticate(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return false
	}

	uid, err := g.verifier.Verify(c.Request.Context(), token)
	if err != nil || uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return false
	}
	c.Set(callerKey, uid)
	return true
}

// CallerID returns the verified caller set by the gate, or "".
func CallerID(c *gin.Context) string {
	return c.GetString(callerKey)
}
