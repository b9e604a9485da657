// Package recurrence вычисляет следующее наступление повторяющегося события.
//
// Расписание строится из даты начала, вида повторения и интервала; граница
// окончания исключающая. Все вычисления выполняются в UTC, поле часового пояса
// события носит справочный характер.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/magabrotheeeer/subbers/internal/models"
)

// ErrInvalidRecurrence возвращается для повторяющегося правила с интервалом меньше 1.
var ErrInvalidRecurrence = errors.New("invalid recurrence")

// Kind вид повторения.
type Kind string

// Поддерживаемые виды повторения.
const (
	None    Kind = "none"
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// ParseKind приводит строку из хранилища к Kind. Пустые и неизвестные значения дают None.
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Daily, Weekly, Monthly:
		return k
	default:
		return None
	}
}

func (k Kind) freq() (rrule.Frequency, bool) {
	switch k {
	case Daily:
		return rrule.DAILY, true
	case Weekly:
		return rrule.WEEKLY, true
	case Monthly:
		return rrule.MONTHLY, true
	default:
		return 0, false
	}
}

// Recurring сообщает, повторяется ли событие.
func (k Kind) Recurring() bool {
	_, ok := k.freq()
	return ok
}

// Rule правило повторения события.
type Rule struct {
	Kind     Kind
	Interval int
	Start    time.Time
	End      *time.Time // исключающая граница, nil означает бессрочно
	TimeZone string
}

// ForEvent собирает правило повторения события.
func ForEvent(ev models.Event) Rule {
	return Rule{
		Kind:     ParseKind(ev.RecurrenceType),
		Interval: ev.Interval,
		Start:    ev.StartDate,
		End:      ev.RecurrenceEnd,
		TimeZone: ev.TimeZone,
	}
}

// Validate проверяет интервал повторяющегося правила.
func (r Rule) Validate() error {
	if r.Kind.Recurring() && r.Interval < 1 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRecurrence, r.Interval)
	}
	return nil
}

// NextOccurrence возвращает самое раннее наступление строго позже now или nil,
// если оно попадает на End или позже. Для неповторяющихся правил возвращается
// stored без изменений. Если Start позже now, возвращается Start.
func NextOccurrence(r Rule, stored *time.Time, now time.Time) (*time.Time, error) {
	const op = "recurrence.NextOccurrence"
	freq, ok := r.Kind.freq()
	if !ok {
		return stored, nil
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := r.Start.UTC()
	if r.End != nil && !r.End.After(start) {
		return nil, nil
	}
	if start.After(now) {
		return &start, nil
	}

	// rrule хранит Dtstart с точностью до секунды, доли секунды добавляются обратно.
	frac := start.Sub(start.Truncate(time.Second))
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: r.Interval,
		Dtstart:  start.Truncate(time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRecurrence, err)
	}

	next := rule.After(now.UTC().Add(-frac), false)
	if next.IsZero() {
		return nil, nil
	}
	next = next.UTC().Add(frac)
	if r.End != nil && !next.Before(*r.End) {
		return nil, nil
	}
	return &next, nil
}

// RRule возвращает значение свойства RRULE (RFC 5545) или пустую строку для
// неповторяющихся правил. UNTIL включающий, поэтому берётся секунда до End.
func (r Rule) RRule() string {
	if !r.Kind.Recurring() || r.Interval < 1 {
		return ""
	}
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(strings.ToUpper(string(r.Kind)))
	b.WriteString(";INTERVAL=")
	b.WriteString(strconv.Itoa(r.Interval))
	if r.End != nil {
		until := r.End.UTC().Add(-time.Second)
		b.WriteString(";UNTIL=")
		b.WriteString(until.Format("20060102T150405Z"))
	}
	return b.String()
}
