package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expenses/internal/core"

	"github.com/google/uuid"
)

// ChangeMessage is the wire form of core.ChangeEvent. ID is unique per
// publish so consumers can drop redeliveries.
type ChangeMessage struct {
	ID         string          `json:"id"`
	Type       core.ChangeType `json:"type"`
	UserID     string          `json:"user_id"`
	ExpenseID  string          `json:"expense_id,omitempty"`
	Count      int             `json:"count"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return &ChangeMessage{
		ID:         uuid.NewString(),
		Type:       ev.Type,
		UserID:     ev.UserID,
		ExpenseID:  ev.ExpenseID,
		Count:      ev.Count,
		OccurredAt: at,
	}
}

func (m *ChangeMessage) Event() core.ChangeEvent {
	return core.ChangeEvent{
		Type:       m.Type,
		UserID:     m.UserID,
		ExpenseID:  m.ExpenseID,
		Count:      m.Count,
		OccurredAt: m.OccurredAt,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.UserID == "" {
		return nil, errors.New("message missing id or user_id")
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("unknown change type %q", msg.Type)
	}
	return &msg, nil
}
