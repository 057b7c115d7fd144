package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rolecatalog/rbac-engine/config"
	"github.com/rolecatalog/rbac-engine/internal/domain/event"
	pginfra "github.com/rolecatalog/rbac-engine/internal/infrastructure/postgres"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
)

// The audit worker is the passive sink for role domain events: it
// drains the queue the catalog publishes to and persists each event as
// an audit row. Delivery guarantees live here, not in the catalog.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-audit", cfg.Env)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQAuditQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	audit := pginfra.NewAuditRepository(pool)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQAuditQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQAuditQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	logger.Infof("audit worker consuming queue %s", cfg.RabbitMQAuditQueue)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			logger.Info("audit worker shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				logger.Warn("consume channel closed")
				return
			}
			var e event.Event
			if err := json.Unmarshal(d.Body, &e); err != nil {
				logger.WithError(err).Warn("malformed event dropped")
				_ = d.Nack(false, false)
				continue
			}

			recordCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := audit.Record(recordCtx, e)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("event", e.Name).Error("audit record failed, requeueing")
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
