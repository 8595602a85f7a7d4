package model

import (
	"slices"
	"time"
)

// NotificationKind identifies the event that produced a notification.
type NotificationKind string

const (
	KindNewJob              NotificationKind = "new_job"
	KindNewApplication      NotificationKind = "new_application"
	KindApplicationAccepted NotificationKind = "application_accepted"
	KindTest                NotificationKind = "test"
)

// Notification is the durable feed entry written once per (event, recipient).
// Only ReadBy changes after creation, and it only grows.
type Notification struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	UserID      string           `gorm:"index;size:128;not null" json:"userId"`
	Kind        NotificationKind `gorm:"size:32;not null" json:"type"`
	SubjectID   string           `gorm:"size:128" json:"jobId,omitempty"`
	Title       string           `gorm:"size:512;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Link        string           `gorm:"size:512" json:"link"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"createdAt"`
	ReadBy      []string         `gorm:"serializer:json;type:text" json:"readBy"`
}

// MarkReadBy adds userID to the read set and reports whether it changed.
func (n *Notification) MarkReadBy(userID string) bool {
	if slices.Contains(n.ReadBy, userID) {
		return false
	}
	n.ReadBy = append(n.ReadBy, userID)
	return true
}
