package notification

import (
	"context"
	"fmt"

	"github.com/SherClockHolmes/webpush-go"

	"jobboard-notify-backend/internal/push"
	"jobboard-notify-backend/internal/store"
)

type scopeKind int

const (
	scopeAllUsers scopeKind = iota
	scopeAdminsOnly
	scopeSingleUser
)

// Scope selects who receives a notification.
type Scope struct {
	kind   scopeKind
	userID string
}

func AllUsers() Scope { return Scope{kind: scopeAllUsers} }
func AdminsOnly() Scope { return Scope{kind: scopeAdminsOnly} }
func SingleUser(id string) Scope { return Scope{kind: scopeSingleUser, userID: id} }

func (s Scope) String() string {
	switch s.kind {
	case scopeAllUsers:
		return "all-users"
	case scopeAdminsOnly:
		return "admins-only"
	default:
		return "user:" + s.userID
	}
}

// Recipient is one resolved target together with the single channel it will
// be reached on. Channel is push.ChannelNone when the user has no registration.
type Recipient struct {
	UserID       string
	Channel      push.Channel
	Token        string
	Subscription *webpush.Subscription

	// What the user had registered, regardless of the channel picked.
	HasNative  bool
	HasWebPush bool
}

// Registry resolves scopes into recipients.
type Registry struct {
	store store.Store
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// Resolve returns every recipient of scope with its chosen channel.
func (r *Registry) Resolve(ctx context.Context, scope Scope) ([]Recipient, error) {
	switch scope.kind {
	case scopeAllUsers:
		ids, err := r.store.ListUserIDs(ctx)
		if err != nil {
			return nil, err
		}
		regs, err := r.store.ListRegistrations(ctx)
		if err != nil {
			return nil, err
		}
		recipients := make([]Recipient, 0, len(ids))
		for _, id := range ids {
			recipients = append(recipients, selectChannel(id, regs[id]))
		}
		return recipients, nil

	case scopeAdminsOnly:
		ids, err := r.store.ListAdminIDs(ctx)
		if err != nil {
			return nil, err
		}
		recipients := make([]Recipient, 0, len(ids))
		for _, id := range ids {
			regs, err := r.store.GetRegistrations(ctx, id)
			if err != nil {
				return nil, err
			}
			recipients = append(recipients, selectChannel(id, regs))
		}
		return recipients, nil

	case scopeSingleUser:
		if scope.userID == "" {
			return nil, fmt.Errorf("%w: empty recipient", ErrInvalidArgument)
		}
		regs, err := r.store.GetRegistrations(ctx, scope.userID)
		if err != nil {
			return nil, err
		}
		return []Recipient{selectChannel(scope.userID, regs)}, nil
	}
	return nil, fmt.Errorf("unknown scope %v", scope)
}

// selectChannel applies the one-channel rule: Web Push wins over a native
// token, which wins over nothing.
func selectChannel(userID string, regs store.Registrations) Recipient {
	rc := Recipient{
		UserID:     userID,
		HasNative:  regs.Native != nil,
		HasWebPush: regs.WebPush != nil,
	}
	switch {
	case regs.WebPush != nil:
		rc.Channel = push.ChannelWebPush
		rc.Subscription = &webpush.Subscription{
			Endpoint: regs.WebPush.Endpoint,
			Keys: webpush.Keys{
				P256dh: regs.WebPush.P256DH,
				Auth:   regs.WebPush.Auth,
			},
		}
	case regs.Native != nil:
		rc.Channel = push.ChannelNative
		rc.Token = regs.Native.Token
	}
	return rc
}

// Address is the token or endpoint used for the chosen channel.
func (rc Recipient) Address() string {
	switch rc.Channel {
	case push.ChannelWebPush:
		return rc.Subscription.Endpoint
	case push.ChannelNative:
		return rc.Token
	}
	return ""
}
