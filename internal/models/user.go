package models

import "time"

// User представляет пользователя, созданного при первом аутентифицированном запросе.
// StripeKey хранится в том виде, в котором лежит в хранилище (возможно, зашифрованным).
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	StripeKey string     `json:"stripeKey,omitempty"`
	Zoom      ZoomTokens `json:"zoom"`
}

// ZoomTokens токены OAuth-подключения Zoom.
type ZoomTokens struct {
	AccessToken  string     `json:"accessToken,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
}

// ZoomConnected сообщает, подключён ли у пользователя Zoom.
func (u User) ZoomConnected() bool {
	return u.Zoom.AccessToken != ""
}

// UserInfo ответ GET /get-user.
type UserInfo struct {
	StripeKey     string `json:"stripeKey"`
	UserID        string `json:"userID"`
	ZoomConnected bool   `json:"zoomConnected"`
}
