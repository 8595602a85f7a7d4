package push

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// LibrarySender is the real NotificationSender backed by the webpush library.
type LibrarySender struct{}

// Send sends a notification using the webpush library.
func (LibrarySender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// WebSender delivers one message to one browser subscription.
type WebSender interface {
	Send(ctx context.Context, sub *webpush.Subscription, msg Message) (Status, error)
}

// WebPushSender signs requests with the configured VAPID keys.
type WebPushSender struct {
	options *webpush.Options
	sender  NotificationSender
}

// NewWebPushSender creates a sender using the real webpush transport.
func NewWebPushSender(options *webpush.Options) *WebPushSender {
	return &WebPushSender{options: options, sender: LibrarySender{}}
}

// NewWebPushSenderWith lets callers swap the transport.
func NewWebPushSenderWith(options *webpush.Options, sender NotificationSender) *WebPushSender {
	return &WebPushSender{options: options, sender: sender}
}

func (s *WebPushSender) Send(ctx context.Context, sub *webpush.Subscription, msg Message) (Status, error) {
	payload, err := msg.JSON()
	if err != nil {
		return StatusTransientError, fmt.Errorf("failed to encode payload: %w", err)
	}

	resp, err := s.sender.Send(ctx, payload, sub, s.options)
	if err != nil {
		return StatusTransientError, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return ClassifyWebPushStatus(resp.StatusCode)
}

// ClassifyWebPushStatus maps a push service response code to a Status.
// 404 and 410 mean the subscription is gone for good.
func ClassifyWebPushStatus(code int) (Status, error) {
	switch {
	case code >= 200 && code < 300:
		return StatusDelivered, nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return StatusInvalidEndpoint, fmt.Errorf("push service returned %d", code)
	default:
		return StatusTransientError, fmt.Errorf("push service returned %d", code)
	}
}
