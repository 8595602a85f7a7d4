// Package testutil builds throwaway databases for tests.
package testutil

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard-notify-backend/internal/db"
	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/store"
)

// NewStore opens a private in-memory SQLite database with the schema applied.
func NewStore(t *testing.T) (store.Store, *gorm.DB) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return store.NewGormStore(gormDB), gormDB
}

// SeedUsers inserts users; ids listed in admins get the admin flag.
func SeedUsers(t *testing.T, gormDB *gorm.DB, ids []string, admins ...string) {
	t.Helper()
	isAdmin := make(map[string]bool, len(admins))
	for _, id := range admins {
		isAdmin[id] = true
	}
	for _, id := range ids {
		require.NoError(t, gormDB.Create(&model.User{ID: id, DisplayName: id, IsAdmin: isAdmin[id]}).Error)
	}
}

// SeedWebPush gives userID a Web Push subscription at endpoint.
func SeedWebPush(t *testing.T, gormDB *gorm.DB, userID, endpoint string) {
	t.Helper()
	require.NoError(t, gormDB.Create(&model.WebPushSubscription{
		UserID:    userID,
		Endpoint:  endpoint,
		P256DH:    "p256dh-" + userID,
		Auth:      "auth-" + userID,
		CreatedAt: time.Now(),
	}).Error)
}

// SeedNativeToken gives userID an FCM token.
func SeedNativeToken(t *testing.T, gormDB *gorm.DB, userID, token string) {
	t.Helper()
	require.NoError(t, gormDB.Create(&model.NativePushToken{UserID: userID, Token: token, UpdatedAt: time.Now()}).Error)
}

// CountNotifications returns how many records exist, optionally for one user.
func CountNotifications(t *testing.T, gormDB *gorm.DB, userID ...string) int64 {
	t.Helper()
	q := gormDB.Model(&model.Notification{})
	if len(userID) > 0 {
		q = q.Where("user_id = ?", userID[0])
	}
	var n int64
	require.NoError(t, q.Count(&n).Error)
	return n
}

// DiscardLogger is a logger for components whose output tests ignore.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
