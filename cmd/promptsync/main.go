package main

import (
	"context"
	"fmt"
	"os"

	"prompt-manager-core/internal/bootstrap"
	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/tracer"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const version = "0.3.0"

func main() {
	app := &cli.App{
		Name:    "promptsync",
		Usage:   "Manage prompts locally and share them through the remote store",
		Version: version,
		Commands: []*cli.Command{
			MigrateCommand(),
			PromptsCommand(),
			ShareCommand(),
			PushCommand(),
			UnshareCommand(),
			ImportCommand(),
			CleanupCommand(),
			ListPublicCommand(),
			ChangesCommand(),
		},
	}

	shutdown := tracer.InitTracer(context.Background())
	err := app.Run(os.Args)
	_ = shutdown(context.Background())

	if err != nil {
		color.Red("Error: %s", err)
		os.Exit(1)
	}
}

// withContainer loads configuration, opens every store and runs fn.
func withContainer(c *cli.Context, fn func(ctx context.Context, app *bootstrap.Container) error) error {
	ctx := c.Context
	container, err := bootstrap.NewContainer(ctx, config.Load())
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer container.Close()

	return fn(ctx, container)
}
