// Package identity проверяет ID-токены Firebase Authentication и извлекает из них
// идентичность пользователя.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrInvalidToken возвращается для отсутствующего, просроченного или поддельного токена.
var ErrInvalidToken = errors.New("invalid identity token")

// Identity проверенная идентичность пользователя.
type Identity struct {
	UID   string
	Email string
}

// TokenVerifier проверяет подпись и claims ID-токена. Реализуется *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier проверяет ID-токены Firebase проекта.
type Verifier struct {
	tokens TokenVerifier
}

// NewVerifier создаёт Verifier поверх tokens.
func NewVerifier(tokens TokenVerifier) *Verifier {
	return &Verifier{tokens: tokens}
}

// NewFirebase создаёт Verifier на клиенте Firebase Admin SDK для проекта projectID.
// Без файла сервисного аккаунта клиент работает без авторизации: для проверки
// токенов нужны только публичные сертификаты.
func NewFirebase(ctx context.Context, projectID, credentialsFile string) (*Verifier, error) {
	const op = "identity.NewFirebase"
	opt := option.WithoutAuthentication()
	if credentialsFile != "" {
		opt = option.WithCredentialsFile(credentialsFile)
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewVerifier(client), nil
}

// Verify проверяет токен и возвращает uid и email в нижнем регистре.
func (v *Verifier) Verify(ctx context.Context, raw string) (Identity, error) {
	const op = "identity.Verify"
	if raw == "" {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	tok, err := v.tokens.VerifyIDToken(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	if tok == nil || tok.UID == "" {
		return Identity{}, fmt.Errorf("%s: %w: missing subject", op, ErrInvalidToken)
	}
	email, _ := tok.Claims["email"].(string)
	if email == "" {
		return Identity{}, fmt.Errorf("%s: %w: missing email", op, ErrInvalidToken)
	}
	return Identity{UID: tok.UID, Email: strings.ToLower(email)}, nil
}
