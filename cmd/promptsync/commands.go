package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"prompt-manager-core/internal/bootstrap"
	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/deeplink"
	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/internal/service"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func parseID(c *cli.Context, what string) (uuid.UUID, error) {
	raw := c.Args().First()
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s argument", what)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", what, raw, err)
	}
	return id, nil
}

func optional(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Bring the local store to the latest schema generation",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "status", Usage: "Only report the current generation"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
			defer log.Sync()

			db, engine, err := bootstrap.NewMigrator(cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			current, err := engine.Generation(c.Context)
			if err != nil {
				return err
			}
			if c.Bool("status") {
				fmt.Printf("generation %d (latest %d)\n", current, engine.Latest())
				return nil
			}

			if err := engine.Open(c.Context); err != nil {
				return err
			}
			after, err := engine.Generation(c.Context)
			if err != nil {
				return err
			}
			color.Green("Store at generation %d (was %d)", after, current)
			return nil
		},
	}
}

func PromptsCommand() *cli.Command {
	return &cli.Command{
		Name:  "prompts",
		Usage: "Create, inspect and edit local prompts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a prompt with its first version",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "source-link"},
					&cli.StringSliceFlag{Name: "attach", Usage: "Attach the contents of `FILE` (repeatable)"},
				},
				Action: runPromptCreate,
			},
			{
				Name:  "list",
				Usage: "List prompts, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Only prompts with this exact name"},
					&cli.IntFlag{Name: "limit", Usage: "Page size, 0 for all"},
					&cli.IntFlag{Name: "offset"},
				},
				Action: func(c *cli.Context) error {
					return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
						prompts, err := app.PromptService.ListPrompts(ctx, &dto.ListPromptsRequest{
							Name:   c.String("name"),
							Limit:  c.Int("limit"),
							Offset: c.Int("offset"),
						})
						if err != nil {
							return err
						}
						for _, p := range prompts {
							fmt.Printf("%s  %s\n", p.Id, p.Name)
						}
						return nil
					})
				},
			},
			{
				Name:      "show",
				Usage:     "Show a prompt and its versions",
				ArgsUsage: "<promptID>",
				Action:    runPromptShow,
			},
			{
				Name:      "rewrite",
				Usage:     "Store an accepted rewrite as the next version",
				ArgsUsage: "<promptID>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Required: true},
				},
				Action: func(c *cli.Context) error {
					id, err := parseID(c, "prompt ID")
					if err != nil {
						return err
					}
					return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
						history, err := app.PromptService.AcceptRewrite(ctx, &dto.AcceptRewriteRequest{PromptId: id, Text: c.String("text")})
						if err != nil {
							return err
						}
						color.Green("Saved version %d", history.Version)
						return nil
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a prompt with all versions and attachments",
				ArgsUsage: "<promptID>",
				Action: func(c *cli.Context) error {
					id, err := parseID(c, "prompt ID")
					if err != nil {
						return err
					}
					return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
						if err := app.PromptService.DeletePrompt(ctx, id); err != nil {
							return err
						}
						color.Green("Deleted prompt %s", id)
						return nil
					})
				},
			},
		},
	}
}

func runPromptCreate(c *cli.Context) error {
	var attachments [][]byte
	for _, path := range c.StringSlice("attach") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		attachments = append(attachments, data)
	}

	req := &dto.CreatePromptRequest{
		Name:        c.String("name"),
		Text:        c.String("text"),
		Description: optional(c, "description"),
		SourceLink:  optional(c, "source-link"),
		Attachments: attachments,
	}

	return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
		prompt, err := app.PromptService.CreatePrompt(ctx, req)
		if err != nil {
			return err
		}
		color.Green("Created prompt %s", prompt.Id)
		return nil
	})
}

func runPromptShow(c *cli.Context) error {
	id, err := parseID(c, "prompt ID")
	if err != nil {
		return err
	}

	return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
		prompt, err := app.PromptService.GetPrompt(ctx, id)
		if err != nil {
			return err
		}

		color.Cyan("%s", prompt.Name)
		if prompt.Description != nil {
			fmt.Println(*prompt.Description)
		}
		fmt.Printf("attachments: %d\n", len(prompt.ExternalAssets))
		for _, h := range prompt.Histories {
			fmt.Printf("\nv%d (%s)\n%s\n", h.Version, h.Id, h.PromptText)
		}
		return nil
	})
}

func ShareCommand() *cli.Command {
	return &cli.Command{
		Name:      "share",
		Usage:     "Create a local share draft from a prompt's latest version",
		ArgsUsage: "<promptID>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "public", Usage: "List the share publicly once pushed"},
			&cli.BoolFlag{Name: "push", Usage: "Push the draft immediately"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseID(c, "prompt ID")
			if err != nil {
				return err
			}
			return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
				draft, err := app.PromptService.CreateShareDraft(ctx, &dto.CreateShareDraftRequest{
					PromptId: id,
					IsPublic: c.Bool("public"),
				})
				if err != nil {
					return err
				}
				color.Green("Created share draft %s", draft.Id)

				if !c.Bool("push") {
					return nil
				}
				if _, err := app.SyncService.PushSaved(ctx, draft.Id); err != nil {
					return err
				}
				fmt.Println(deeplink.Build(app.DeepLinkScheme, draft.Id))
				return nil
			})
		},
	}
}

func PushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Push one or more shared creations to the remote store",
		ArgsUsage: "<sharedID>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("missing shared creation ID")
			}
			ids := make([]uuid.UUID, 0, c.NArg())
			for _, raw := range c.Args().Slice() {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid shared creation ID %q: %w", raw, err)
				}
				ids = append(ids, id)
			}

			return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
				failed := 0
				for _, res := range app.SyncService.PushAll(ctx, ids) {
					if res.Err != nil {
						failed++
						color.Red("%s: %v", res.SharedCreationID, res.Err)
						continue
					}
					color.Green("%s -> %s", res.SharedCreationID, res.RecordID)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d pushes failed", failed, len(ids))
				}
				return nil
			})
		},
	}
}

func UnshareCommand() *cli.Command {
	return &cli.Command{
		Name:      "unshare",
		Usage:     "Delete a shared creation remotely, then locally",
		ArgsUsage: "<sharedID>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c, "shared creation ID")
			if err != nil {
				return err
			}
			return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
				sc, err := app.SyncService.LoadSharedCreation(ctx, id)
				if err != nil {
					return err
				}
				if sc.IsDraft() {
					err = app.SyncService.DiscardDraft(ctx, id)
				} else {
					err = app.SyncService.Delete(ctx, sc)
				}
				if err != nil {
					var deleteErr *service.DeleteError
					if errors.As(err, &deleteErr) {
						color.Yellow("Local copy kept; run unshare again to retry")
					}
					return err
				}
				color.Green("Removed %s", id)
				return nil
			})
		},
	}
}

func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a shared creation from a deep link",
		ArgsUsage: "<uri>",
		Action: func(c *cli.Context) error {
			uri := c.Args().First()
			if uri == "" {
				return errors.New("missing deep link argument")
			}
			return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
				promptID, err := app.ImportResolver.Resolve(ctx, uri)
				if err != nil {
					return err
				}
				color.Green("Imported as prompt %s", promptID)
				return nil
			})
		},
	}
}

func CleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete local shares whose remote record no longer exists",
		Action: func(c *cli.Context) error {
			return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
				report, err := app.SyncService.CleanupOrphans(ctx)
				if report != nil {
					fmt.Printf("checked %d, kept %d, deleted %d\n", report.Checked, report.Kept, len(report.Deleted))
					for _, id := range report.Unreachable {
						color.Yellow("could not verify %s; kept", id)
					}
				}
				return err
			})
		},
	}
}

func ListPublicCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-public",
		Usage: "List public shared creations, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of results (0 uses the configured default)"},
		},
		Action: func(c *cli.Context) error {
			return withContainer(c, func(ctx context.Context, app *bootstrap.Container) error {
				shared, err := app.SyncService.ListPublic(ctx, c.Int("limit"))
				if err != nil {
					return err
				}
				for _, sc := range shared {
					printShared(app.DeepLinkScheme, sc)
				}
				return nil
			})
		},
	}
}

func printShared(scheme string, sc *entity.SharedCreation) {
	color.Cyan("%s", sc.Name)
	fmt.Printf("  %s\n", deeplink.Build(scheme, sc.Id))
	fmt.Printf("  %s\n", strings.SplitN(sc.Prompt, "\n", 2)[0])
}
