package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"realtime-chat-be/internal/config"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/pkg/events"
	pkgNats "realtime-chat-be/pkg/nats"
)

// Audit worker: consumes the durable chat event stream and writes an
// append-only audit trail. Runs separately from the API instances so a
// restart never loses acknowledged events.
func main() {
	cfg := config.Load()

	auditLog := logger.NewIsolatedLogger("logs/audit.log")
	defer auditLog.Sync()

	sub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	handler := func(_ context.Context, event events.Event) error {
		auditLog.Info("Audit", event.EventType(), event.Payload())
		return nil
	}

	if err := sub.Subscribe("chat.events.>", "chat-audit-worker", handler); err != nil {
		log.Fatalf("Error: failed to subscribe: %v", err)
	}

	log.Println("Audit worker running, press Ctrl+C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Audit worker shutting down")
}
