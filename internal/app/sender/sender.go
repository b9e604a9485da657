// Package sender собирает отправителя напоминаний: потребитель очереди
// RabbitMQ, который рассылает письма подписчикам продукта события.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subbers/internal/cache"
	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/lib/secret"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/lib/smtp"
	"github.com/magabrotheeeer/subbers/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/subbers/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/subbers/internal/services/sender"
	"github.com/magabrotheeeer/subbers/internal/services/subscribers"
	"github.com/magabrotheeeer/subbers/internal/services/users"
	"github.com/magabrotheeeer/subbers/internal/storage"
	"github.com/magabrotheeeer/subbers/internal/storage/backend"
)

// App приложение отправителя.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	repo          storage.Repository
	redis         *cache.Cache
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к хранилищу и брокеру.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"
	app := &App{logger: logger}

	box, err := secret.New(cfg.Storage.CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.repo, err = backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var userCache users.Cache = cache.Noop{}
	if cfg.Redis.Enabled() {
		app.redis, err = cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		userCache = app.redis
	}

	app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.ReminderQueues())
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.senderService = senderservice.New(
		logger,
		users.New(app.repo, userCache, box, cfg.Redis.UserTTL, logger),
		subscribers.New(logger, stripe.NewFactory(), cfg.Billing.PageSize, cfg.Billing.DateLayout),
		smtp.NewMailer(smtp.NewTransport(cfg.SMTP)),
	)
	return app, nil
}

// Run потребляет очередь напоминаний до отмены ctx или закрытия соединения.
func (a *App) Run(ctx context.Context) error {
	const op = "sender.Run"
	defer a.close()

	if err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ReminderQueue, a.logger, a.senderService.HandleMessage); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Info("reminder sender started", slog.String("queue", rabbitmq.ReminderQueue))

	closed := a.conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down sender service")
		return nil
	case err, ok := <-closed:
		if ok && err != nil {
			return fmt.Errorf("%s: connection closed: %s", op, err.Reason)
		}
		return nil
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
		a.ch = nil
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
		a.conn = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
		a.repo = nil
	}
}
