// Package sender обрабатывает сообщения-напоминания из очереди и рассылает
// письма активным подписчикам продукта события или владельцу события.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/subbers/internal/lib/secret"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/metrics"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/rabbitmq"
	"github.com/magabrotheeeer/subbers/internal/services/subscribers"
	"github.com/magabrotheeeer/subbers/internal/storage"
)

// UserSource определяет методы получения владельца события и его ключа.
type UserSource interface {
	ByID(ctx context.Context, id string) (*models.User, error)
	StripeKey(u *models.User) (string, error)
}

// SubscriberSource возвращает подписчиков по ключу биллинга.
type SubscriberSource interface {
	Subscribers(ctx context.Context, credential string, opts subscribers.Options) ([]models.Subscriber, error)
}

// Mailer отправляет одно письмо.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service рассылает напоминания.
type Service struct {
	users UserSource
	subs  SubscriberSource
	mail  Mailer
	log   *slog.Logger
}

// New создаёт Service.
func New(log *slog.Logger, users UserSource, subs SubscriberSource, mail Mailer) *Service {
	return &Service{
		users: users,
		subs:  subs,
		mail:  mail,
		log:   log,
	}
}

// HandleMessage разбирает тело сообщения и рассылает напоминание.
// Ошибки разбора помечаются rabbitmq.ErrPermanent.
func (s *Service) HandleMessage(ctx context.Context, body []byte) error {
	const op = "sender.HandleMessage"
	var r models.Reminder
	if err := json.Unmarshal(body, &r); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if r.EventID == "" || r.UserID == "" {
		return fmt.Errorf("%s: %w: event_id and user_id are required", op, rabbitmq.ErrPermanent)
	}
	return s.Send(ctx, r)
}

// Send рассылает напоминание. Ошибка возвращается, только если не удалось
// отправить ни одного письма.
func (s *Service) Send(ctx context.Context, r models.Reminder) error {
	const op = "sender.Send"
	log := s.log.With(slog.String("event_id", r.EventID))

	to, err := s.recipients(ctx, r)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(to) == 0 {
		log.Info("no recipients for reminder", slog.String("product", r.Product))
		return nil
	}

	subject, body := Content(r)
	var sent int
	var lastErr error
	for _, addr := range to {
		if err := s.mail.Send(addr, subject, body); err != nil {
			log.Error("failed to send reminder email", slog.String("recipient", addr), sl.Err(err))
			metrics.RemindersSent.WithLabelValues("error").Inc()
			lastErr = err
			continue
		}
		metrics.RemindersSent.WithLabelValues("ok").Inc()
		sent++
	}
	if sent == 0 {
		return fmt.Errorf("%s: %w", op, lastErr)
	}
	log.Info("reminder emails sent", slog.Int("sent", sent), slog.Int("recipients", len(to)))
	return nil
}

func (s *Service) recipients(ctx context.Context, r models.Reminder) ([]string, error) {
	u, err := s.users.ByID(ctx, r.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", rabbitmq.ErrPermanent, err)
	}
	if err != nil {
		return nil, err
	}
	if r.Product == "" {
		return []string{u.Email}, nil
	}

	key, err := s.users.StripeKey(u)
	if errors.Is(err, secret.ErrDecrypt) {
		return nil, fmt.Errorf("%w: %w", rabbitmq.ErrPermanent, err)
	}
	if err != nil {
		return nil, err
	}
	if key == "" {
		s.log.Warn("owner has no billing credential, notifying owner",
			slog.String("event_id", r.EventID))
		return []string{u.Email}, nil
	}

	subs, err := s.subs.Subscribers(ctx, key, subscribers.Options{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return ProductRecipients(subs, r.Product), nil
}

// ProductRecipients возвращает уникальные адреса подписчиков продукта.
func ProductRecipients(subs []models.Subscriber, product string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sub := range subs {
		if !strings.EqualFold(strings.TrimSpace(sub.ProductName), strings.TrimSpace(product)) {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(sub.Email))
		if email == "" || sub.Email == subscribers.NotAvailable {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// Content возвращает тему и текст письма. Пустые поля события заменяются шаблоном.
func Content(r models.Reminder) (string, string) {
	subject := strings.TrimSpace(r.EmailSubject)
	if subject == "" {
		subject = "Reminder: " + r.Title
	}
	body := strings.TrimSpace(r.EmailMessage)
	if body == "" {
		body = fmt.Sprintf("%s starts at %s.", r.Title, r.Occurrence.UTC().Format(time.RFC1123))
	}
	return subject, body
}
