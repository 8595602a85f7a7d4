package notification

import (
	"context"
	"log"

	"jobboard-notify-backend/internal/push"
	"jobboard-notify-backend/internal/store"
)

// Janitor removes registrations that a push provider reported as dead.
type Janitor struct {
	store  store.Store
	logger *log.Logger
}

func NewJanitor(s store.Store, logger *log.Logger) *Janitor {
	return &Janitor{store: s, logger: logger}
}

// Sweep deletes the registration behind every invalid_endpoint outcome in a
// single batch and logs transient failures. It returns how many registrations
// it removed. Errors are logged, never returned.
func (j *Janitor) Sweep(ctx context.Context, outcomes []push.Outcome) int {
	var stale []store.StaleRegistration
	for _, o := range outcomes {
		switch o.Status {
		case push.StatusInvalidEndpoint:
			j.logger.Printf("%s registration of %s is no longer valid (%v); removing", o.Channel, o.UserID, o.Err)
			stale = append(stale, store.StaleRegistration{
				UserID:  o.UserID,
				Kind:    registrationKind(o.Channel),
				Address: o.Address,
			})
		case push.StatusTransientError:
			j.logger.Printf("%s delivery to %s failed: %v", o.Channel, o.UserID, o.Err)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	// The caller going away must not leave dead registrations behind.
	if err := j.store.DeleteStaleRegistrations(context.WithoutCancel(ctx), stale); err != nil {
		j.logger.Printf("Failed to remove %d stale registrations: %v", len(stale), err)
		return 0
	}
	return len(stale)
}

func registrationKind(c push.Channel) store.RegistrationKind {
	if c == push.ChannelWebPush {
		return store.RegistrationWebPush
	}
	return store.RegistrationNative
}
