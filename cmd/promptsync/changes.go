package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"prompt-manager-core/internal/config"
	"prompt-manager-core/pkg/events"
	pktNats "prompt-manager-core/pkg/nats"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func ChangesCommand() *cli.Command {
	return &cli.Command{
		Name:  "changes",
		Usage: "Inspect replicated store changes",
		Subcommands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "Print changes replicated to NATS until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "entity", Usage: "Only show changes to `ENTITY` (prompt, shared_creation, ...)"},
					&cli.StringFlag{Name: "durable", Value: "promptsync-tail", Usage: "Durable consumer name"},
				},
				Action: runChangesTail,
			},
		},
	}
}

func runChangesTail(c *cli.Context) error {
	cfg := config.Load()
	if cfg.Events.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}

	subject := pktNats.SubjectPrefix + ".>"
	if entity := c.String("entity"); entity != "" {
		subject = fmt.Sprintf("%s.%s.*", pktNats.SubjectPrefix, entity)
	}

	sub, err := pktNats.NewSubscriber(cfg.Events.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, subject, c.String("durable"), func(_ context.Context, change events.ChangeEvent) error {
		line := fmt.Sprintf("%s  %-16s %-7s %s", change.OccurredAt.Format("15:04:05.000"), change.Entity, change.Op, change.EntityID)
		switch change.Op {
		case events.OpDelete:
			color.Red("%s", line)
		case events.OpInsert:
			color.Green("%s", line)
		default:
			fmt.Println(line)
		}
		return nil
	})
	if err != nil {
		return err
	}

	color.Cyan("Tailing %s (Ctrl-C to stop)", subject)
	<-ctx.Done()
	return nil
}
