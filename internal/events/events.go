// Package events fans run progress and notifications out to stream
// subscribers.
package events

import (
	"encoding/json"
	"time"
)

// Event types published by the shell.
const (
	TypeProgress     = "progress"
	TypeNotification = "notification"
	TypeStatus       = "status"
	TypePing         = "ping"
)

// Event is the envelope written to subscribers.
type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Make builds an encoded event envelope. data may be nil.
func Make(runID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err == nil {
			raw = b
		}
	}
	b, _ := json.Marshal(Event{ //nolint:errchkjson
		Type:    typ,
		Version: 1,
		At:      time.Now().UTC(),
		RunID:   runID,
		Data:    raw,
	})
	return string(b)
}
