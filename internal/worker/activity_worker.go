// Package worker holds the consumers of expense change events.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// ActivityWorker persists every change event into the activity log.
type ActivityWorker struct {
	store storage.ActivityStore
	now   func() time.Time
}

func NewActivityWorker(store storage.ActivityStore) *ActivityWorker {
	return &ActivityWorker{store: store, now: time.Now}
}

// HandleChange records msg. The message id doubles as the activity id, so a
// redelivered message is stored once.
func (w *ActivityWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.DebugContext(ctx, "Recording change event",
		applog.FieldOperation, applog.OpConsume,
		"id", msg.ID,
		applog.FieldChangeType, msg.Type,
		applog.FieldUserID, msg.UserID)

	a := core.Activity{
		ID:          msg.ID,
		ChangeEvent: msg.Event(),
		RecordedAt:  w.now().UTC(),
	}
	if err := w.store.RecordActivity(ctx, a); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// Invalidator drops cached reads for a user.
type Invalidator interface {
	InvalidateUser(userID string)
}

// EvictionHandler returns a handler that evicts the cached reads of the user
// named by each event. It never fails, so nothing is requeued.
func EvictionHandler(inv Invalidator) amqp.Handler {
	return func(ctx context.Context, msg *amqp.ChangeMessage) error {
		inv.InvalidateUser(msg.UserID)
		return nil
	}
}
