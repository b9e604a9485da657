// Package oauth реализует подключение Stripe Connect и Zoom по OAuth 2.0:
// построение ссылки авторизации с подписанным state и обмен кода на токены.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/magabrotheeeer/subbers/internal/lib/statetoken"
	"github.com/magabrotheeeer/subbers/internal/models"
)

// Имена провайдеров, они же значения claim provider в state.
const (
	ProviderStripe = "stripe"
	ProviderZoom   = "zoom"
)

var (
	// ErrNotConfigured у провайдера не задан client id.
	ErrNotConfigured = errors.New("oauth provider is not configured")
	// ErrInvalidState state отсутствует, просрочен или подписан чужим ключом.
	ErrInvalidState = statetoken.ErrInvalidState
	// ErrMissingCode в callback не передан code.
	ErrMissingCode = errors.New("authorization code is missing")
	// ErrExchange провайдер отклонил обмен кода.
	ErrExchange = errors.New("oauth code exchange failed")
)

// Endpoint адреса авторизации провайдеров.
var (
	StripeEndpoint = oauth2.Endpoint{
		AuthURL:   "https://connect.stripe.com/oauth/authorize",
		TokenURL:  "https://connect.stripe.com/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	ZoomEndpoint = oauth2.Endpoint{
		AuthURL:   "https://zoom.us/oauth/authorize",
		TokenURL:  "https://zoom.us/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
)

// Token результат обмена кода.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       *time.Time
	AccountID    string // stripe_user_id для Stripe Connect
}

// Provider OAuth-провайдер.
type Provider struct {
	name string
	cfg  *oauth2.Config
}

// Option настраивает Provider.
type Option func(*Provider)

// WithEndpoint подменяет адреса провайдера.
func WithEndpoint(authURL, tokenURL string) Option {
	return func(p *Provider) {
		p.cfg.Endpoint.AuthURL = authURL
		p.cfg.Endpoint.TokenURL = tokenURL
	}
}

// NewStripe создаёт провайдер Stripe Connect. Секретом клиента служит
// секретный ключ платформы.
func NewStripe(clientID, platformKey, redirectURI string, opts ...Option) *Provider {
	return newProvider(ProviderStripe, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: platformKey,
		RedirectURL:  redirectURI,
		Scopes:       []string{"read_write"},
		Endpoint:     StripeEndpoint,
	}, opts)
}

// NewZoom создаёт провайдер Zoom.
func NewZoom(clientID, clientSecret, redirectURI string, opts ...Option) *Provider {
	return newProvider(ProviderZoom, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     ZoomEndpoint,
	}, opts)
}

func newProvider(name string, cfg *oauth2.Config, opts []Option) *Provider {
	p := &Provider{name: name, cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name возвращает имя провайдера.
func (p *Provider) Name() string { return p.name }

// Configured сообщает, задан ли client id.
func (p *Provider) Configured() bool { return p.cfg.ClientID != "" }

// AuthURL возвращает ссылку на страницу согласия провайдера.
func (p *Provider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// Exchange обменивает код авторизации на токены.
func (p *Provider) Exchange(ctx context.Context, code string) (Token, error) {
	const op = "oauth.Exchange"
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %s: %w: %w", op, p.name, ErrExchange, err)
	}

	out := Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		out.Expiry = &expiry
	}
	if id, ok := tok.Extra("stripe_user_id").(string); ok {
		out.AccountID = id
	}
	return out, nil
}

// UserStore сохраняет результаты подключения.
type UserStore interface {
	GetOrCreate(ctx context.Context, email string) (*models.User, error)
	SaveStripeKey(ctx context.Context, u *models.User, key string) error
	SaveZoomTokens(ctx context.Context, u *models.User, tokens models.ZoomTokens) error
}

// States выпускает и проверяет подписанный state.
type States interface {
	Issue(email, provider string) (string, error)
	Parse(state, provider string) (string, error)
}

// Connector связывает провайдера с пользователями сервиса.
type Connector struct {
	provider *Provider
	states   States
	users    UserStore
	log      *slog.Logger
}

// NewConnector создаёт Connector.
func NewConnector(p *Provider, states States, users UserStore, log *slog.Logger) *Connector {
	return &Connector{provider: p, states: states, users: users, log: log}
}

// AuthURL возвращает ссылку авторизации для пользователя email.
func (c *Connector) AuthURL(email string) (string, error) {
	const op = "oauth.AuthURL"
	if !c.provider.Configured() {
		return "", fmt.Errorf("%s: %s: %w", op, c.provider.name, ErrNotConfigured)
	}
	state, err := c.states.Issue(email, c.provider.name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return c.provider.AuthURL(state), nil
}

// Complete обрабатывает callback провайдера: проверяет state, обменивает код
// и сохраняет полученный ключ или токены у пользователя из state.
func (c *Connector) Complete(ctx context.Context, code, state string) error {
	const op = "oauth.Complete"
	email, err := c.states.Parse(state, c.provider.name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingCode)
	}

	tok, err := c.provider.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	u, err := c.users.GetOrCreate(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch c.provider.name {
	case ProviderStripe:
		err = c.users.SaveStripeKey(ctx, u, tok.AccessToken)
	default:
		err = c.users.SaveZoomTokens(ctx, u, models.ZoomTokens{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			Expiry:       tok.Expiry,
		})
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("oauth account connected",
		slog.String("provider", c.provider.name),
		slog.String("user_id", u.ID),
		slog.String("account_id", tok.AccountID),
	)
	return nil
}
