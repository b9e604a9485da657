// Package statetoken выпускает и проверяет подписанные короткоживущие токены,
// передаваемые в параметре state OAuth-подключений. Токен несёт email пользователя
// и подписывается HS256, поэтому callback не примет неподписанный email.
package statetoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidState возвращается для поддельного, просроченного или пустого state.
var ErrInvalidState = errors.New("invalid oauth state")

// Claims данные, хранящиеся в state-токене.
type Claims struct {
	Email    string `json:"email"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Maker подписывает и проверяет state-токены.
type Maker struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New создаёт Maker с секретом и временем жизни токена.
func New(secret string, ttl time.Duration) *Maker {
	return &Maker{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock подменяет источник времени.
func (m *Maker) WithClock(now func() time.Time) *Maker {
	m.now = now
	return m
}

// Issue возвращает state-токен для email и провайдера (stripe, zoom).
func (m *Maker) Issue(email, provider string) (string, error) {
	const op = "statetoken.Issue"
	if len(m.secret) == 0 {
		return "", fmt.Errorf("%s: empty secret", op)
	}
	now := m.now()
	claims := Claims{
		Email:    email,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Parse проверяет подпись, срок действия и провайдера и возвращает email.
func (m *Maker) Parse(state, provider string) (string, error) {
	const op = "statetoken.Parse"
	if state == "" || len(m.secret) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidState)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(state, &claims, func(_ *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrInvalidState, err)
	}
	if claims.Email == "" || claims.Provider != provider {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidState)
	}
	return claims.Email, nil
}
