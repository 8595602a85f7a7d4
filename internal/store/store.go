package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobboard-notify-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListUserIDs(ctx context.Context) ([]string, error)
	ListAdminIDs(ctx context.Context) ([]string, error)
	GetUser(ctx context.Context, id string) (*model.User, error)

	GetRegistrations(ctx context.Context, userID string) (Registrations, error)
	ListRegistrations(ctx context.Context) (map[string]Registrations, error)
	SaveNativeToken(ctx context.Context, userID, token string) error
	DeleteNativeToken(ctx context.Context, userID string) error
	SaveWebPushSubscription(ctx context.Context, sub *model.WebPushSubscription) error
	DeleteWebPushSubscription(ctx context.Context, userID string) error
	DeleteStaleRegistrations(ctx context.Context, stale []StaleRegistration) error

	CreateNotifications(ctx context.Context, records []model.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

func (s *gormStore) ListAdminIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("is_admin = ?", true).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return ids, nil
}

func (s *gormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// GetRegistrations looks up both registration shapes for one user.
func (s *gormStore) GetRegistrations(ctx context.Context, userID string) (Registrations, error) {
	var regs Registrations

	var tokens []model.NativePushToken
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&tokens).Error; err != nil {
		return regs, fmt.Errorf("failed to get push token for %s: %w", userID, err)
	}
	if len(tokens) > 0 && tokens[0].Token != "" {
		regs.Native = &tokens[0]
	}

	var subs []model.WebPushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&subs).Error; err != nil {
		return regs, fmt.Errorf("failed to get web push subscription for %s: %w", userID, err)
	}
	if len(subs) > 0 && subs[0].Endpoint != "" {
		regs.WebPush = &subs[0]
	}

	return regs, nil
}

// ListRegistrations loads every registration keyed by user id.
func (s *gormStore) ListRegistrations(ctx context.Context) (map[string]Registrations, error) {
	var tokens []model.NativePushToken
	if err := s.db.WithContext(ctx).Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	var subs []model.WebPushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list web push subscriptions: %w", err)
	}

	out := make(map[string]Registrations, len(tokens)+len(subs))
	for i := range tokens {
		if tokens[i].Token == "" {
			continue
		}
		regs := out[tokens[i].UserID]
		regs.Native = &tokens[i]
		out[tokens[i].UserID] = regs
	}
	for i := range subs {
		if subs[i].Endpoint == "" {
			continue
		}
		regs := out[subs[i].UserID]
		regs.WebPush = &subs[i]
		out[subs[i].UserID] = regs
	}
	return out, nil
}

func (s *gormStore) SaveNativeToken(ctx context.Context, userID, token string) error {
	record := model.NativePushToken{UserID: userID, Token: token, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&record).Error
}

func (s *gormStore) DeleteNativeToken(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Delete(&model.NativePushToken{}, "user_id = ?", userID).Error
}

func (s *gormStore) SaveWebPushSubscription(ctx context.Context, sub *model.WebPushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"endpoint", "p256dh", "auth", "raw", "updated_at"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteWebPushSubscription(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Delete(&model.WebPushSubscription{}, "user_id = ?", userID).Error
}

// DeleteStaleRegistrations removes dead registrations in one transaction.
func (s *gormStore) DeleteStaleRegistrations(ctx context.Context, stale []StaleRegistration) error {
	if len(stale) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range stale {
			var err error
			switch r.Kind {
			case RegistrationNative:
				err = tx.Where("user_id = ? AND token = ?", r.UserID, r.Address).
					Delete(&model.NativePushToken{}).Error
			case RegistrationWebPush:
				err = tx.Where("user_id = ? AND endpoint = ?", r.UserID, r.Address).
					Delete(&model.WebPushSubscription{}).Error
			default:
				err = fmt.Errorf("unknown registration kind %q", r.Kind)
			}
			if err != nil {
				return fmt.Errorf("failed to delete %s registration of %s: %w", r.Kind, r.UserID, err)
			}
		}
		return nil
	})
}

// CreateNotifications writes the whole batch or nothing.
func (s *gormStore) CreateNotifications(ctx context.Context, records []model.Notification) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(records, 200).Error; err != nil {
			return fmt.Errorf("failed to create %d notifications: %w", len(records), err)
		}
		return nil
	})
}

func (s *gormStore) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	var records []model.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", userID, err)
	}
	return records, nil
}

// MarkNotificationRead unions userID into the record's read set.
// Only the recipient may acknowledge a record; anyone else gets ErrNotFound.
func (s *gormStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.Notification
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load notification %s: %w", id, err)
		}

		if !record.MarkReadBy(userID) {
			return nil
		}
		return tx.Save(&record).Error
	})
}
