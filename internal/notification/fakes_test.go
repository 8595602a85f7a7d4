package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/push"
	"jobboard-notify-backend/internal/store"
)

// fakeNative records multicast calls and answers per token.
type fakeNative struct {
	mu      sync.Mutex
	calls   [][]string
	msgs    []push.Message
	results map[string]push.NativeResult
	err     error
}

func (f *fakeNative) SendMulticast(_ context.Context, tokens []string, msg push.Message) ([]push.NativeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), tokens...))
	f.msgs = append(f.msgs, msg)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]push.NativeResult, len(tokens))
	for i, tok := range tokens {
		if r, ok := f.results[tok]; ok {
			out[i] = r
			continue
		}
		out[i] = push.NativeResult{Status: push.StatusDelivered}
	}
	return out, nil
}

func (f *fakeNative) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []string
	for _, c := range f.calls {
		all = append(all, c...)
	}
	return all
}

// fakeWeb records every Web Push send and answers per endpoint.
type fakeWeb struct {
	mu        sync.Mutex
	endpoints []string
	msgs      []push.Message
	statuses  map[string]push.Status
}

func (f *fakeWeb) Send(_ context.Context, sub *webpush.Subscription, msg push.Message) (push.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = append(f.endpoints, sub.Endpoint)
	f.msgs = append(f.msgs, msg)
	if s, ok := f.statuses[sub.Endpoint]; ok && s != push.StatusDelivered {
		return s, errors.New("push service rejected the message")
	}
	return push.StatusDelivered, nil
}

func (f *fakeWeb) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.endpoints...)
}

// failingStore breaks selected operations of an otherwise working store.
type failingStore struct {
	store.Store
	failCreate bool
	failDelete bool
}

func (s *failingStore) CreateNotifications(ctx context.Context, records []model.Notification) error {
	if s.failCreate {
		return errors.New("database unavailable")
	}
	return s.Store.CreateNotifications(ctx, records)
}

func (s *failingStore) DeleteStaleRegistrations(ctx context.Context, stale []store.StaleRegistration) error {
	if s.failDelete {
		return errors.New("database unavailable")
	}
	return s.Store.DeleteStaleRegistrations(ctx, stale)
}
