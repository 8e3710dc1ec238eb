package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Envelope is the outer event record delivered by the event bus webhook.
// Field names follow the bus wire format, including the hyphenated
// detail-type.
type Envelope struct {
	Version    string          `json:"version,omitempty"`
	ID         string          `json:"id"`
	DetailType string          `json:"detail-type"`
	Source     string          `json:"source"`
	Account    string          `json:"account,omitempty"`
	Time       time.Time       `json:"time"`
	Region     string          `json:"region,omitempty"`
	Detail     json.RawMessage `json:"detail"`
}

// HasDetail reports whether the envelope carries a non-null detail payload.
func (e *Envelope) HasDetail() bool {
	d := bytes.TrimSpace(e.Detail)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// WebhookResponse is the acknowledgment body returned to the bus.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
