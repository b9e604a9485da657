package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subbers/internal/lib/sl"
)

const prefetch = 10

// ErrPermanent помечает ошибку обработки, при которой сообщение не возвращается в очередь.
var ErrPermanent = errors.New("permanent message failure")

// Handler обрабатывает тело сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage запускает потребителя очереди queueName. Одновременно
// обрабатывается не более prefetch сообщений. Возвращает после запуска;
// потребление останавливается с отменой ctx или закрытием канала.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler Handler) error {
	const op = "rabbitmq.ConsumerMessage"
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	go consume(ctx, deliveries, log, handler)
	return nil
}

func consume(ctx context.Context, deliveries <-chan amqp.Delivery, log *slog.Logger, handler Handler) {
	sem := make(chan struct{}, prefetch)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handle(ctx, d, log, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handle(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	requeue := !errors.Is(err, ErrPermanent)
	log.Warn("message handling failed", sl.Err(err), slog.Bool("requeue", requeue))
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
