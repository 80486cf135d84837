// tail prints the analytics stream: every all_checked, decision_made and
// dish_requested event the event log forwards to NATS.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stallpick-be/internal/config"
	"stallpick-be/pkg/events"
	pktNats "stallpick-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

func main() {
	cfg := config.Load()

	var (
		natsURL string
		kind    string
		durable string
	)
	flagSet := pflag.NewFlagSet("tail", pflag.ExitOnError)
	flagSet.StringVar(&natsURL, "nats", cfg.Analytics.NatsURL, "NATS server URL")
	flagSet.StringVar(&kind, "kind", "*", "event kind to follow")
	flagSet.StringVar(&durable, "durable", "stallpick-tail", "durable consumer name")
	_ = flagSet.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := pktNats.NewSubscriber(natsURL)
	if err != nil {
		color.Red("Unable to connect to NATS: %v", err)
		os.Exit(1)
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, pktNats.SubjectPrefix+kind, durable, func(ctx context.Context, event events.Event) error {
		printEvent(event)
		return nil
	})
	if err != nil {
		color.Red("Unable to subscribe: %v", err)
		os.Exit(1)
	}

	color.Cyan("Following %s%s on %s\n", pktNats.SubjectPrefix, kind, natsURL)
	<-ctx.Done()
}

func printEvent(event events.Event) {
	payload := event.Payload()
	meta, _ := json.Marshal(payload["meta"])

	ts := event.Timestamp().Local().Format("15:04:05")
	var kind string
	switch event.EventType() {
	case "decision_made":
		kind = color.GreenString("%-15s", event.EventType())
	case "dish_requested":
		kind = color.MagentaString("%-15s", event.EventType())
	default:
		kind = color.YellowString("%-15s", event.EventType())
	}
	fmt.Printf("%s %s session=%v %s\n", ts, kind, payload["session_id"], meta)
}
