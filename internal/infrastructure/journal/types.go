package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry records a broadcast that could not be delivered. Entries are kept
// for operators to inspect; nothing replays them.
type Entry struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Channel   string          `json:"channel"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}
