// Command subbersctl административные команды: миграции схемы postgres,
// разовый обход напоминаний и расчёт следующего наступления.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/lib/logger"
	"github.com/magabrotheeeer/subbers/internal/migrations"
	"github.com/magabrotheeeer/subbers/internal/recurrence"
	"github.com/magabrotheeeer/subbers/internal/services/reminder"
	"github.com/magabrotheeeer/subbers/internal/storage/backend"
	"github.com/magabrotheeeer/subbers/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("subbersctl failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "subbersctl",
		Usage: "Administrative commands for the subbers service.",
		Commands: []*cli.Command{
			migrateCommand(),
			sweepCommand(),
			nextOccurrenceCommand(),
		},
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Setup(cfg.LogLevel), nil
}

func migrateCommand() *cli.Command {
	withDB := func(fn func(s *postgres.Storage, path string, c *cli.Context) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.StoragePostgres {
				return fmt.Errorf("migrations apply to the postgres storage only, driver is %q", cfg.Storage.Driver)
			}
			s, err := postgres.New(c.Context, cfg.Storage.ConnectionString)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return fn(s, cfg.Storage.MigrationsPath, c)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the postgres schema.",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations.",
				Action: withDB(func(s *postgres.Storage, path string, c *cli.Context) error {
					if err := migrations.Run(s.DB, path); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "migrations applied")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back migrations.",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "Number of migrations to roll back."},
				},
				Action: withDB(func(s *postgres.Storage, path string, c *cli.Context) error {
					if err := migrations.Down(s.DB, path, c.Int("steps")); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "rolled back %d migration(s)\n", c.Int("steps"))
					return nil
				}),
			},
			{
				Name:  "version",
				Usage: "Print the current schema version.",
				Action: withDB(func(s *postgres.Storage, path string, c *cli.Context) error {
					v, dirty, err := migrations.Version(s.DB, path)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "version %d dirty=%t\n", v, dirty)
					return nil
				}),
			},
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Run one reminder sweep and log due reminders.",
		Action: func(c *cli.Context) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			repo, err := backend.Open(c.Context, cfg.Storage, log)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			res, err := reminder.New(repo, reminder.NewLogNotifier(log), log).Sweep(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "checked=%d marked=%d skipped=%d failed=%d\n",
				res.Checked, res.Marked, res.Skipped, res.Failed)
			return nil
		},
	}
}

func nextOccurrenceCommand() *cli.Command {
	return &cli.Command{
		Name:  "next-occurrence",
		Usage: "Compute the next occurrence of a recurrence rule.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Required: true, Usage: "Start date, RFC 3339."},
			&cli.StringFlag{Name: "type", Value: string(recurrence.None), Usage: "none, daily, weekly or monthly."},
			&cli.IntFlag{Name: "interval", Value: 1},
			&cli.StringFlag{Name: "end", Usage: "Exclusive end date, RFC 3339."},
			&cli.StringFlag{Name: "now", Usage: "Reference time, RFC 3339. Defaults to the current time."},
		},
		Action: func(c *cli.Context) error {
			start, err := time.Parse(time.RFC3339, c.String("start"))
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			rule := recurrence.Rule{
				Kind:     recurrence.ParseKind(c.String("type")),
				Interval: c.Int("interval"),
				Start:    start,
			}
			if v := c.String("end"); v != "" {
				end, err := time.Parse(time.RFC3339, v)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				rule.End = &end
			}
			now := time.Now()
			if v := c.String("now"); v != "" {
				if now, err = time.Parse(time.RFC3339, v); err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
			}

			var stored *time.Time
			if !rule.Kind.Recurring() && start.After(now) {
				stored = &start
			}
			next, err := recurrence.NextOccurrence(rule, stored, now)
			if err != nil {
				return err
			}
			if next == nil {
				fmt.Fprintln(c.App.Writer, "none")
				return nil
			}
			fmt.Fprintln(c.App.Writer, next.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
