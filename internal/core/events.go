package core

import "time"

const (
	ChangeCreated ChangeType = "created"
	ChangeDeleted ChangeType = "deleted"
	ChangeCleared ChangeType = "cleared"
	ChangeSeeded  ChangeType = "seeded"
)

type (
	// ChangeType names the kind of write that modified a user's expenses.
	ChangeType string

	// ChangeEvent is emitted after every successful write. ExpenseID is set
	// for single-row changes, Count for bulk ones.
	ChangeEvent struct {
		Type       ChangeType
		UserID     string
		ExpenseID  string
		Count      int
		OccurredAt time.Time
	}

	// Activity is a persisted ChangeEvent.
	Activity struct {
		ID string
		ChangeEvent
		RecordedAt time.Time
	}
)

func (t ChangeType) Valid() bool {
	switch t {
	case ChangeCreated, ChangeDeleted, ChangeCleared, ChangeSeeded:
		return true
	}
	return false
}
