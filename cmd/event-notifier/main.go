package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ms-events/internal/config"
	"ms-events/internal/kafka"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

// event-notifier follows the attendance topics and logs every RSVP change.
// It is the hook point for e-mail or push delivery.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Service: "event-notifier",
		Dir:     cfg.Log.Dir,
		Level:   logger.ParseLevel(cfg.Log.Level),
		NoColor: cfg.Log.NoColor,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if !cfg.Kafka.Enabled {
		log.Fatal("CONFIG", "KAFKA_ENABLED must be set for the notifier")
	}

	topics := cfg.Kafka.Topics.Attendance()
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	log.Info("APP", fmt.Sprintf("Event notifier consuming %v", topics))
	if err := consumer.Start(ctx, notify(log)); err != nil {
		log.Fatal("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
	}
	log.Info("APP", "✅ Event notifier shutdown complete")
}

func notify(log *logger.Logger) kafka.Handler {
	return func(ctx context.Context, topic string, msg models.EventMessage) error {
		switch msg.Type {
		case models.MessageAttendeeJoined:
			log.LogKafka("NOTIFY", topic, fmt.Sprintf("%s joined %q (%d/%d)", msg.UserID, msg.Title, msg.AttendeeCount, msg.Capacity))
		case models.MessageAttendeeLeft:
			log.LogKafka("NOTIFY", topic, fmt.Sprintf("%s left %q (%d/%d)", msg.UserID, msg.Title, msg.AttendeeCount, msg.Capacity))
		default:
			log.Debug("KAFKA", fmt.Sprintf("Ignoring %s on %s", msg.Type, topic))
		}
		return nil
	}
}
