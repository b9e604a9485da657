// Package scheduler собирает планировщик напоминаний: периодический обход
// событий по cron и публикацию наступивших напоминаний.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subbers/internal/cache"
	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/rabbitmq"
	"github.com/magabrotheeeer/subbers/internal/services/reminder"
	"github.com/magabrotheeeer/subbers/internal/storage"
	"github.com/magabrotheeeer/subbers/internal/storage/backend"
)

// Sweeper выполняет один обход.
type Sweeper interface {
	Sweep(ctx context.Context) (reminder.Result, error)
}

// App представляет приложение планировщика.
type App struct {
	sweeper  Sweeper
	schedule string
	logger   *slog.Logger
	closers  []func() error
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "scheduler.New"
	app := &App{
		schedule: "@every " + cfg.Scheduler.Interval.String(),
		logger:   logger,
	}

	repo, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.closers = append(app.closers, repo.Close)

	notifier, err := app.notifier(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sweeper, err := app.sweeperFor(ctx, cfg, repo, notifier)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.sweeper = sweeper
	return app, nil
}

func (a *App) notifier(ctx context.Context, cfg *config.Config) (reminder.Notifier, error) {
	if cfg.Scheduler.Notifier != config.NotifierRabbitMQ {
		return reminder.NewLogNotifier(a.logger), nil
	}
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ReminderQueues())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ch.Close)
	a.watch(conn)
	return rabbitmq.NewPublisher(ch), nil
}

func (a *App) sweeperFor(ctx context.Context, cfg *config.Config, repo storage.Repository, n reminder.Notifier) (*reminder.Sweeper, error) {
	s := reminder.New(repo, n, a.logger)
	if !cfg.Redis.Enabled() {
		return s, nil
	}
	c, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c.Close)
	return s.WithLocker(c, cfg.Scheduler.LockTTL), nil
}

// watch логирует потерю соединения с брокером.
func (a *App) watch(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closed; ok && err != nil {
			a.logger.Error("rabbitmq connection closed", slog.String("reason", err.Reason))
		}
	}()
}

// Run запускает обход сразу и далее по расписанию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	const op = "scheduler.Run"
	logger := cronLogger{log: a.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	job := cron.FuncJob(func() { a.runOnce(ctx) })
	if _, err := c.AddJob(a.schedule, job); err != nil {
		a.close()
		return fmt.Errorf("%s: %w", op, err)
	}

	a.logger.Info("reminder scheduler started", slog.String("schedule", a.schedule))
	a.runOnce(ctx)
	c.Start()

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")
	<-c.Stop().Done()
	a.close()
	return nil
}

func (a *App) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := a.sweeper.Sweep(ctx)
	switch {
	case errors.Is(err, reminder.ErrSweepInProgress):
		a.logger.Info("sweep skipped, another sweep is running")
	case err != nil:
		a.logger.Error("sweep failed", sl.Err(err))
	default:
		a.logger.Info("sweep finished",
			slog.Int("checked", res.Checked),
			slog.Int("marked", res.Marked),
			slog.Int("skipped", res.Skipped),
			slog.Int("failed", res.Failed),
			slog.Int("unsent", res.Unsent),
			slog.Duration("duration", res.Duration),
		)
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}

// cronLogger направляет журнал cron в slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, sl.Err(err))...)
}
