package kafka

import (
	"context"
	"database/sql"
	"time"

	"go-ems/internal/events"
	"go-ems/internal/shared/contextutil"
)

// EnqueueRecordChanged writes a record-change event into the outbox as part
// of tx, so the event exists exactly when the change commits. A nil repo is
// a no-op.
func EnqueueRecordChanged(
	ctx context.Context,
	repo OutboxRepository,
	tx *sql.Tx,
	entity, eventType, entityID, employeeID string,
) error {
	if repo == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event, err := NewPendingEvent(
		events.RecordChangedTopic,
		entity,
		entityID,
		eventType,
		rid,
		events.RecordChangedEvent{
			EventType:  eventType,
			RequestID:  rid,
			Entity:     entity,
			EntityID:   entityID,
			EmployeeID: employeeID,
			OccurredAt: time.Now().UTC(),
		},
	)
	if err != nil {
		return err
	}
	return repo.WithTx(tx).Create(ctx, event)
}
