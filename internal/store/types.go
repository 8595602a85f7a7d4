package store

import (
	"errors"

	"jobboard-notify-backend/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// RegistrationKind distinguishes the two push registration shapes.
type RegistrationKind string

const (
	RegistrationNative  RegistrationKind = "native"
	RegistrationWebPush RegistrationKind = "webpush"
)

// Registrations holds whatever push registrations a user currently has.
// Either field may be nil.
type Registrations struct {
	Native  *model.NativePushToken
	WebPush *model.WebPushSubscription
}

// StaleRegistration names a registration the push provider reported as dead.
// Address is the token or endpoint that failed; a registration that has since
// been replaced with a different address is left alone.
type StaleRegistration struct {
	UserID  string
	Kind    RegistrationKind
	Address string
}
