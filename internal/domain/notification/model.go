package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification maps to the notifications table. read_at is the single
// authoritative read state; the serialized `read` boolean is derived from it
// at the JSON boundary and never stored.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      string          `db:"body" json:"body"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	ReadAt    *time.Time      `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

func (n *Notification) Read() bool { return n.ReadAt != nil }

func (n Notification) MarshalJSON() ([]byte, error) {
	type alias Notification
	return json.Marshal(struct {
		alias
		Read bool `json:"read"`
	}{alias: alias(n), Read: n.ReadAt != nil})
}
