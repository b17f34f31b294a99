package app

import (
	"context"

	"go-ems/internal/config"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/messaging/kafka/producer"
	"go-ems/internal/notification"
	"go-ems/internal/salary"
	"go-ems/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka and fires the monthly salary run.
// It blocks until ctx ends.
func RunWorker(ctx context.Context, cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	st, err := connectStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(st.sqlDB)

	// Run notifications still reach API clients through Redis.
	channel := notification.NewRedisChannel(st.rdb, notification.NewHub(logger), logger)
	go channel.Run(ctx)

	salaryService := newSalaryService(cfg, st, outboxRepo, channel)
	scheduler, err := salary.NewScheduler(cfg.SalarySchedule, salaryService, logger)
	if err != nil {
		return err
	}
	go scheduler.Run(ctx)

	go producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, cfg.OutboxPollInterval)

	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}
