package model

import "time"

// User is the job-board account record. The core only reads it.
type User struct {
	ID          string `gorm:"primaryKey;size:128"`
	DisplayName string `gorm:"size:256"`
	IsAdmin     bool   `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
