package push

import "fmt"

// Channel is the delivery channel chosen for a recipient.
type Channel string

const (
	ChannelNone    Channel = ""
	ChannelNative  Channel = "fcm"
	ChannelWebPush Channel = "webpush"
)

// Status classifies a single delivery attempt.
type Status int

const (
	StatusDelivered Status = iota
	StatusInvalidEndpoint
	StatusTransientError
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusInvalidEndpoint:
		return "invalid_endpoint"
	case StatusTransientError:
		return "transient_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one send to one recipient. Address is the token or
// endpoint that was used.
type Outcome struct {
	UserID  string
	Channel Channel
	Address string
	Status  Status
	Err     error
}

// Delivered reports whether the provider accepted the message.
func (o Outcome) Delivered() bool {
	return o.Status == StatusDelivered
}
