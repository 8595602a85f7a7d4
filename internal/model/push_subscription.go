package model

import "time"

// WebPushSubscription holds the browser push subscription of one user,
// stored as received from the push manager.
type WebPushSubscription struct {
	UserID    string    `gorm:"primaryKey;size:128"`
	Endpoint  string    `gorm:"type:text;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	Raw       string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

// NativePushToken is the FCM registration token of one user.
type NativePushToken struct {
	UserID    string `gorm:"primaryKey;size:128"`
	Token     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
