package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// maxMulticastTokens is the FCM limit for one multicast call.
const maxMulticastTokens = 500

// NativeResult is the per-token answer of a multicast send.
type NativeResult struct {
	Status Status
	Err    error
}

// NativeSender sends one message to many registration tokens at once.
// Results are returned in token order.
type NativeSender interface {
	SendMulticast(ctx context.Context, tokens []string, msg Message) ([]NativeResult, error)
}

// multicaster is the subset of messaging.Client used by FCMSender.
type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender delivers data messages through Firebase Cloud Messaging.
type FCMSender struct {
	client multicaster
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

// SendMulticast splits tokens into FCM-sized chunks. A chunk that fails as a
// whole marks all of its tokens transient.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, msg Message) ([]NativeResult, error) {
	results := make([]NativeResult, 0, len(tokens))
	data := msg.Data()

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(tokens))
		chunk := tokens[start:end]

		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Data:   data,
		})
		if err != nil {
			for range chunk {
				results = append(results, NativeResult{Status: StatusTransientError, Err: err})
			}
			continue
		}

		for i := range chunk {
			if i >= len(resp.Responses) || resp.Responses[i] == nil {
				results = append(results, NativeResult{Status: StatusTransientError, Err: fmt.Errorf("missing response for token %d", start+i)})
				continue
			}
			results = append(results, classifyFCMResponse(resp.Responses[i]))
		}
	}
	return results, nil
}

func classifyFCMResponse(r *messaging.SendResponse) NativeResult {
	if r.Success {
		return NativeResult{Status: StatusDelivered}
	}
	if messaging.IsUnregistered(r.Error) || messaging.IsSenderIDMismatch(r.Error) {
		return NativeResult{Status: StatusInvalidEndpoint, Err: r.Error}
	}
	return NativeResult{Status: StatusTransientError, Err: r.Error}
}
