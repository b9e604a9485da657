package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange direct-обменник уведомлений.
const Exchange = "notifications"

// Очередь и ключ маршрутизации напоминаний.
const (
	ReminderQueue      = "notification.reminder"
	ReminderRoutingKey = "reminder"
)

// QueueConfig описывает очередь и её ключ маршрутизации в Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// ReminderQueues возвращает очереди, которые нужны планировщику и отправителю.
func ReminderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ReminderQueue, RoutingKey: ReminderRoutingKey},
	}
}

// SetupChannel открывает канал, объявляет Exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: set qos: %w", op, err)
	}

	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, Exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
