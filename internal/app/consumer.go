package app

import (
	"context"

	"go-ems/internal/config"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka/consumer"
	"go-ems/internal/salary"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const salaryInvalidationGroup = "go-ems-salary-invalidation"

// RunConsumer drops cached salary breakdowns when a record feeding them
// changes. It blocks until ctx ends.
func RunConsumer(ctx context.Context, cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	st, err := connectStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.RecordChangedTopic,
		GroupID:        salaryInvalidationGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	cache := salary.NewRedisBreakdownCache(st.rdb)
	consumer.Consume(ctx, reader, "salary_invalidation", consumer.RecordChangedHandler(cache, logger), logger)

	logger.Info("consumer shutting down")
	return nil
}
