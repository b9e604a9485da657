// Package stripe читает подписки из Stripe. Клиент создаётся на каждый запрос
// из ключа пользователя, глобальный stripe.Key не используется.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/magabrotheeeer/subbers/internal/paymentprovider"
)

// Factory создаёт клиентов Stripe для ключей пользователей.
type Factory struct {
	backendURL string
	config     *stripe.BackendConfig
}

// Option настраивает Factory.
type Option func(*Factory)

// WithBackendURL направляет запросы на другой адрес API.
func WithBackendURL(url string) Option {
	return func(f *Factory) { f.backendURL = url }
}

// NewFactory создаёт Factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.backendURL != "" {
		f.config = &stripe.BackendConfig{
			URL:               stripe.String(f.backendURL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		}
	}
	return f
}

// ForCredential возвращает PageFetcher для секретного ключа credential.
func (f *Factory) ForCredential(credential string) paymentprovider.PageFetcher {
	var backends *stripe.Backends
	if f.config != nil {
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, f.config),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, f.config),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, f.config),
		}
	}
	return &Fetcher{api: client.New(credential, backends), products: make(map[string]string)}
}

// MaxExpandDepth максимальная глубина пути expand, которую принимает Stripe.
const MaxExpandDepth = 4

// expands пути раскрытия для списка подписок. Продукт лежит на пятом уровне
// (data.items.data.price.product), поэтому его имя загружается отдельно.
var expands = []string{
	"data.customer",
	"data.discounts",
	"data.items.data.price",
}

// Fetcher загружает страницы подписок одного аккаунта. Имена продуктов
// кешируются на время жизни Fetcher.
type Fetcher struct {
	api *client.API

	mu       sync.Mutex
	products map[string]string
}

// FetchPage загружает одну страницу с раскрытыми клиентом, скидками и ценой.
func (f *Fetcher) FetchPage(ctx context.Context, req paymentprovider.PageRequest) (paymentprovider.Page, error) {
	const op = "stripe.FetchPage"
	limit := req.Limit
	if limit <= 0 || limit > paymentprovider.MaxPageSize {
		limit = paymentprovider.MaxPageSize
	}

	params := &stripe.SubscriptionListParams{}
	params.Context = ctx
	params.Single = true
	params.Limit = stripe.Int64(int64(limit))
	if req.StartingAfter != "" {
		params.StartingAfter = stripe.String(req.StartingAfter)
	}
	if req.ActiveOnly {
		params.Status = stripe.String(string(stripe.SubscriptionStatusActive))
	} else {
		params.Status = stripe.String("all")
	}
	for _, e := range expands {
		params.AddExpand(e)
	}

	it := f.api.Subscriptions.List(params)
	var page paymentprovider.Page
	var subs []*stripe.Subscription
	for it.Next() {
		subs = append(subs, it.Subscription())
	}
	if err := it.Err(); err != nil {
		return paymentprovider.Page{}, fmt.Errorf("%s: %w: %w", op, paymentprovider.ErrUpstream, err)
	}
	for _, s := range subs {
		rec := convert(s)
		if rec.ProductName == "" && rec.productID != "" {
			name, err := f.productName(ctx, rec.productID)
			if err != nil {
				return paymentprovider.Page{}, fmt.Errorf("%s: %w: %w", op, paymentprovider.ErrUpstream, err)
			}
			rec.ProductName = name
		}
		page.Records = append(page.Records, rec.Record)
	}
	if list := it.SubscriptionList(); list != nil {
		page.HasMore = list.HasMore
	}
	return page, nil
}

// productName возвращает имя продукта по id. Удалённый продукт даёт пустое имя.
func (f *Fetcher) productName(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	name, ok := f.products[id]
	f.mu.Unlock()
	if ok {
		return name, nil
	}

	params := &stripe.ProductParams{}
	params.Context = ctx
	p, err := f.api.Products.Get(id, params)
	if err != nil {
		var serr *stripe.Error
		if !errors.As(err, &serr) || serr.HTTPStatusCode != http.StatusNotFound {
			return "", err
		}
	} else {
		name = p.Name
	}

	f.mu.Lock()
	f.products[id] = name
	f.mu.Unlock()
	return name, nil
}

// record подписка вместе с id нераскрытого продукта.
type record struct {
	paymentprovider.Record
	productID string
}

func convert(s *stripe.Subscription) record {
	var rec record
	rec.ID = s.ID
	rec.Status = string(s.Status)
	rec.StartDate = unix(s.StartDate)
	if s.TrialEnd > 0 {
		t := unix(s.TrialEnd)
		rec.TrialEnd = &t
	}
	if c := s.Customer; c != nil {
		rec.CustomerID = c.ID
		rec.Email = c.Email
		rec.Name = c.Name
		rec.Phone = c.Phone
	}

	if s.Items != nil && len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		rec.CurrentPeriodEnd = unix(item.CurrentPeriodEnd)
		switch {
		case item.Price != nil:
			p := item.Price
			rec.PlanName = p.Nickname
			rec.AmountMinor = p.UnitAmount
			rec.Currency = string(p.Currency)
			if p.Product != nil {
				rec.ProductName = p.Product.Name
				rec.productID = p.Product.ID
			}
			if p.Recurring != nil {
				rec.Interval = string(p.Recurring.Interval)
			}
		case item.Plan != nil:
			p := item.Plan
			rec.PlanName = p.Nickname
			rec.AmountMinor = p.Amount
			rec.Currency = string(p.Currency)
			rec.Interval = string(p.Interval)
			if p.Product != nil {
				rec.ProductName = p.Product.Name
				rec.productID = p.Product.ID
			}
		}
	}

	for _, d := range s.Discounts {
		if d == nil || d.Coupon == nil {
			continue
		}
		rec.Discount = &paymentprovider.Discount{
			PercentOff:     d.Coupon.PercentOff,
			AmountOffMinor: d.Coupon.AmountOff,
			Currency:       string(d.Coupon.Currency),
		}
		break
	}
	return rec
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
