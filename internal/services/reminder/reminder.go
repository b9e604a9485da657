// Package reminder реализует обход событий с включёнными напоминаниями.
//
// Для каждого события момент напоминания равен следующему наступлению (или
// дате начала, если наступление неизвестно) минус смещение. Наступивший
// момент отмечается в хранилище не более одного раза, после чего вызывается
// notifier. Обходы никогда не выполняются одновременно.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/subbers/internal/cache"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/metrics"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/recurrence"
)

// LockKey ключ распределённой блокировки обхода.
const LockKey = "lock:reminder-sweep"

// ErrSweepInProgress обход уже выполняется в этом или другом процессе.
var ErrSweepInProgress = errors.New("reminder sweep already in progress")

// Repository определяет методы хранилища, нужные обходу.
type Repository interface {
	ListReminderEvents(ctx context.Context) ([]models.Event, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

// Notifier получает наступившие напоминания.
type Notifier interface {
	Notify(ctx context.Context, r models.Reminder) error
}

// Locker захватывает блокировку с временем жизни и возвращает функцию её снятия.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Result итог одного обхода.
type Result struct {
	Checked  int // событий с включёнными напоминаниями
	Marked   int
	Skipped  int // некорректное правило повторения
	Failed   int // ошибки отметки
	Unsent   int // ошибки notifier после отметки
	Duration time.Duration
}

// Sweeper выполняет обходы.
type Sweeper struct {
	mu       sync.Mutex
	repo     Repository
	notifier Notifier
	locker   Locker
	lockTTL  time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Sweeper без распределённой блокировки.
func New(repo Repository, notifier Notifier, log *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithLocker включает блокировку между репликами.
func (s *Sweeper) WithLocker(l Locker, ttl time.Duration) *Sweeper {
	s.locker = l
	s.lockTTL = ttl
	return s
}

// WithClock подменяет источник текущего времени.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Due вычисляет момент напоминания для наступления next и сообщает, пора ли
// его отправить. Напоминание не повторяется, если lastSent не раньше remindAt.
func Due(ev models.Event, next *time.Time, now time.Time) (time.Time, bool) {
	base := ev.StartDate
	if next != nil {
		base = *next
	}
	remindAt := base.Add(-time.Duration(ev.ReminderOffset) * time.Minute)
	if now.Before(remindAt) {
		return remindAt, false
	}
	if ev.LastReminderSent != nil && !ev.LastReminderSent.Before(remindAt) {
		return remindAt, false
	}
	return remindAt, true
}

// Sweep проверяет все события с включёнными напоминаниями. Ошибка одного
// события не прерывает обход; ошибка возвращается только если обход не начался.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	const op = "reminder.Sweep"

	if !s.mu.TryLock() {
		metrics.SweepsTotal.WithLabelValues("skipped").Inc()
		return Result{}, fmt.Errorf("%s: %w", op, ErrSweepInProgress)
	}
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.TryLock(ctx, LockKey, s.lockTTL)
		if errors.Is(err, cache.ErrLocked) {
			metrics.SweepsTotal.WithLabelValues("skipped").Inc()
			return Result{}, fmt.Errorf("%s: %w", op, ErrSweepInProgress)
		}
		if err != nil {
			metrics.SweepsTotal.WithLabelValues("error").Inc()
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("failed to release sweep lock", sl.Err(err))
			}
		}()
	}

	started := time.Now()
	res, err := s.sweep(ctx)
	res.Duration = time.Since(started)
	metrics.SweepDuration.Observe(res.Duration.Seconds())
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SweepsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *Sweeper) sweep(ctx context.Context) (Result, error) {
	var res Result

	evs, err := s.repo.ListReminderEvents(ctx)
	if err != nil {
		return res, err
	}

	now := s.now()
	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !ev.ReminderEnabled {
			continue
		}
		res.Checked++
		log := s.log.With(slog.String("event_id", ev.ID))

		next, err := recurrence.NextOccurrence(recurrence.ForEvent(ev), ev.NextOccurrence, now)
		if err != nil {
			log.Warn("skipping event with invalid recurrence", sl.Err(err))
			metrics.ReminderFailures.WithLabelValues("evaluate").Inc()
			res.Skipped++
			continue
		}

		remindAt, due := Due(ev, next, now)
		if !due {
			continue
		}

		if err := s.repo.MarkReminderSent(ctx, ev.ID, now); err != nil {
			log.Error("failed to mark reminder as sent", sl.Err(err))
			metrics.ReminderFailures.WithLabelValues("mark").Inc()
			res.Failed++
			continue
		}
		res.Marked++
		metrics.RemindersMarked.Inc()

		occurrence := ev.StartDate
		if next != nil {
			occurrence = *next
		}
		reminder := models.Reminder{
			EventID:      ev.ID,
			UserID:       ev.UserID,
			Title:        ev.Title,
			Product:      ev.Product,
			Occurrence:   occurrence.UTC(),
			RemindAt:     remindAt.UTC(),
			EmailSubject: ev.EmailSubject,
			EmailMessage: ev.EmailMessage,
		}
		if err := s.notifier.Notify(ctx, reminder); err != nil {
			log.Error("failed to dispatch reminder", sl.Err(err))
			metrics.ReminderFailures.WithLabelValues("notify").Inc()
			res.Unsent++
			continue
		}
		log.Info("reminder dispatched", slog.Time("remind_at", remindAt))
	}
	return res, nil
}

// LogNotifier пишет напоминания в лог.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier создаёт LogNotifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify логирует напоминание.
func (n *LogNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.log.Info("reminder due",
		slog.String("event_id", r.EventID),
		slog.String("user_id", r.UserID),
		slog.String("title", r.Title),
		slog.Time("occurrence", r.Occurrence),
	)
	return nil
}
