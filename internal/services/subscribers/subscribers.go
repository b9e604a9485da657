// Package subscribers собирает полный список подписчиков пользователя из
// платёжного провайдера и приводит его к плоскому представлению models.Subscriber.
package subscribers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/subbers/internal/metrics"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/paymentprovider"
)

// Отображение отсутствующих значений.
const (
	NotAvailable = "N/A"
	NoDiscount   = "None"
)

// DefaultDateLayout формат дат по умолчанию.
const DefaultDateLayout = "2006-01-02"

var (
	// ErrNoBillingCredential у пользователя не сохранён ключ провайдера.
	ErrNoBillingCredential = errors.New("no billing credential on file")
	// ErrUpstream ошибка провайдера, частичный результат отброшен.
	ErrUpstream = paymentprovider.ErrUpstream
)

// Options параметры выборки.
type Options struct {
	ActiveOnly bool
}

// Aggregator постранично читает подписки и нормализует их.
type Aggregator struct {
	factory    paymentprovider.Factory
	pageSize   int
	dateLayout string
	log        *slog.Logger
}

// New создаёт Aggregator. pageSize вне 1..100 заменяется на 100.
func New(log *slog.Logger, factory paymentprovider.Factory, pageSize int, dateLayout string) *Aggregator {
	if pageSize < 1 || pageSize > paymentprovider.MaxPageSize {
		pageSize = paymentprovider.MaxPageSize
	}
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Aggregator{factory: factory, pageSize: pageSize, dateLayout: dateLayout, log: log}
}

// Subscribers возвращает всех подписчиков для ключа credential.
func (a *Aggregator) Subscribers(ctx context.Context, credential string, opts Options) ([]models.Subscriber, error) {
	const op = "subscribers.Subscribers"
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoBillingCredential)
	}

	records, err := Collect(ctx, a.factory.ForCredential(credential), a.pageSize, opts.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.Subscriber, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r, a.dateLayout))
	}
	a.log.Debug("subscribers aggregated", slog.Int("count", len(out)))
	return out, nil
}

// Collect последовательно загружает все страницы, пока провайдер сообщает has_more.
// Курсор следующей страницы берётся из последней записи предыдущей. Любая ошибка
// прерывает сбор без частичного результата.
func Collect(ctx context.Context, f paymentprovider.PageFetcher, pageSize int, activeOnly bool) ([]paymentprovider.Record, error) {
	const op = "subscribers.Collect"
	var (
		all    []paymentprovider.Record
		cursor string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		page, err := f.FetchPage(ctx, paymentprovider.PageRequest{
			Limit:         pageSize,
			StartingAfter: cursor,
			ActiveOnly:    activeOnly,
		})
		if err != nil {
			if errors.Is(err, ErrUpstream) {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
		}
		metrics.BillingPages.Inc()
		all = append(all, page.Records...)

		if !page.HasMore {
			return all, nil
		}
		if len(page.Records) == 0 {
			return nil, fmt.Errorf("%s: %w: has_more without records", op, ErrUpstream)
		}
		cursor = page.Records[len(page.Records)-1].ID
	}
}

// Normalize приводит запись провайдера к models.Subscriber.
func Normalize(r paymentprovider.Record, layout string) models.Subscriber {
	return models.Subscriber{
		ID:                 orNA(r.CustomerID),
		Email:              orNA(r.Email),
		Name:               orNA(r.Name),
		Phone:              orNA(r.Phone),
		SubscriptionStatus: r.Status,
		PlanName:           orNA(r.PlanName),
		ProductName:        orNA(r.ProductName),
		AmountCharged:      FormatAmount(r.AmountMinor),
		Currency:           orNA(strings.ToUpper(r.Currency)),
		CurrentPeriodEnd:   formatDate(r.CurrentPeriodEnd, layout),
		TrialEnd:           formatDatePtr(r.TrialEnd, layout),
		SubscriptionStart:  formatDate(r.StartDate, layout),
		BillingInterval:    orNA(r.Interval),
		Discount:           FormatDiscount(r.Discount),
	}
}

// FormatAmount переводит сумму в минимальных единицах в строку с двумя знаками: 1999 → "19.99".
func FormatAmount(minor int64) string {
	sign := ""
	u := uint64(minor)
	if minor < 0 {
		sign = "-"
		u = -u
	}
	return fmt.Sprintf("%s%d.%02d", sign, u/100, u%100)
}

// FormatDiscount возвращает "20% off", "5.00 USD off" или "None".
func FormatDiscount(d *paymentprovider.Discount) string {
	switch {
	case d == nil:
		return NoDiscount
	case d.PercentOff > 0:
		return strconv.FormatFloat(d.PercentOff, 'f', -1, 64) + "% off"
	case d.AmountOffMinor > 0:
		return FormatAmount(d.AmountOffMinor) + " " + strings.ToUpper(d.Currency) + " off"
	default:
		return NoDiscount
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format(layout)
}

func formatDatePtr(t *time.Time, layout string) string {
	if t == nil {
		return NotAvailable
	}
	return formatDate(*t, layout)
}
