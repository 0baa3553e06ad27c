package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"gamebook-engine/internal/config"
	"gamebook-engine/pkg/events"
	pktNats "gamebook-engine/pkg/nats"
)

// Follows the decision event stream on NATS and prints entries as they
// arrive. Useful for watching a running engine from a second terminal.
func main() {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	color.Cyan("=== Tailing gamebook decision events ===")

	err = sub.Subscribe("gamebook.>", "gamebook-tail", func(_ context.Context, event events.Event) error {
		data := event.Payload()
		switch {
		case data["outcome"] == nil:
			color.Yellow("%v", data)
		default:
			color.Green("seq=%v section=%v action=%v outcome=%v",
				data["seq"], data["section"], data["action"], data["outcome"])
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error: Subscription failed: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}
