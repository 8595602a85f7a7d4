// Package push delivers notification payloads over FCM and W3C Web Push and
// classifies what each provider reports back.
package push

import "encoding/json"

// Message is the payload both channels carry. NID is the client-side
// deduplication key.
type Message struct {
	NID       string `json:"nid"`
	Kind      string `json:"type"`
	SubjectID string `json:"jobId,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link"`
}

// Data renders the message as an FCM data map.
func (m Message) Data() map[string]string {
	data := map[string]string{
		"nid":   m.NID,
		"type":  m.Kind,
		"title": m.Title,
		"body":  m.Body,
		"link":  m.Link,
	}
	if m.SubjectID != "" {
		data["jobId"] = m.SubjectID
	}
	return data
}

// JSON renders the message as a Web Push payload.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}
