// Package paymentprovider описывает независимые от провайдера типы постраничного
// чтения подписок. Реализация для Stripe находится в подпакете stripe.
package paymentprovider

import (
	"context"
	"errors"
	"time"
)

// MaxPageSize максимальный размер страницы, который принимает провайдер.
const MaxPageSize = 100

// ErrUpstream оборачивает любые ошибки обращения к провайдеру.
var ErrUpstream = errors.New("billing provider unavailable")

// PageRequest параметры запроса одной страницы подписок.
type PageRequest struct {
	Limit         int
	StartingAfter string // id последней подписки предыдущей страницы
	ActiveOnly    bool
}

// Page одна страница подписок в порядке провайдера.
type Page struct {
	Records []Record
	HasMore bool
}

// Record подписка вместе с данными клиента, плана и скидки.
// Пустые строки означают отсутствие значения у провайдера.
type Record struct {
	ID               string // id подписки, используется как курсор
	CustomerID       string
	Email            string
	Name             string
	Phone            string
	Status           string
	PlanName         string
	ProductName      string
	AmountMinor      int64
	Currency         string
	CurrentPeriodEnd time.Time
	TrialEnd         *time.Time
	StartDate        time.Time
	Interval         string
	Discount         *Discount
}

// Discount скидка по купону: процентная или фиксированная.
type Discount struct {
	PercentOff     float64
	AmountOffMinor int64
	Currency       string
}

// PageFetcher загружает одну страницу подписок.
type PageFetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}

// Factory создаёт PageFetcher для ключа конкретного пользователя.
type Factory interface {
	ForCredential(credential string) PageFetcher
}
