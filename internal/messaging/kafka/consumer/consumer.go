package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-ems/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ErrPoison marks a message that can never be processed; it is committed
// and skipped instead of retried.
var ErrPoison = errors.New("poison message")

type HandlerFunc func(ctx context.Context, msg kafkago.Message) error

// Consume fetches, handles and commits until ctx ends. A failed handler leaves
// the message uncommitted so the group redelivers it.
func Consume(ctx context.Context, reader MessageReader, name string, handle HandlerFunc, logger *zap.Logger) {
	log := logger.Named("kafka.consumer." + name)
	log.Info("consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped")
				return
			}
			log.Error("fetch message failed", zap.Error(err))
			continue
		}

		if err := handle(ctx, msg); err != nil {
			if !errors.Is(err, ErrPoison) {
				log.Error("handle message failed",
					zap.Int64("offset", msg.Offset),
					zap.Int("partition", msg.Partition),
					zap.Error(err),
				)
				continue
			}
			log.Warn("skipping poison message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message failed", zap.Error(err))
		}
	}
}

// SalaryInvalidator drops cached salary results for one employee.
type SalaryInvalidator interface {
	InvalidateEmployee(ctx context.Context, employeeID string) error
}

// RecordChangedHandler invalidates cached breakdowns for employees whose
// attendance, leave or profile changed.
func RecordChangedHandler(invalidator SalaryInvalidator, logger *zap.Logger) HandlerFunc {
	log := logger.Named("kafka.consumer.record_changed")
	return func(ctx context.Context, msg kafkago.Message) error {
		var event events.RecordChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return errors.Join(ErrPoison, err)
		}
		if !event.AffectsSalary() {
			return nil
		}

		if err := invalidator.InvalidateEmployee(ctx, event.EmployeeID); err != nil {
			return err
		}

		log.Info("salary cache invalidated",
			zap.String("employee_id", event.EmployeeID),
			zap.String("entity", event.Entity),
			zap.String("event_type", event.EventType),
			zap.String("request_id", event.RequestID),
		)
		return nil
	}
}
