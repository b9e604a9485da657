// Package middlewarectx содержит HTTP middleware сервиса.
//
// Auth проверяет bearer-токен провайдера идентификации, находит или создаёт
// пользователя по email и кладёт его в контекст запроса. При отсутствии или
// невалидности токена возвращает 401 { "error": "Unauthorized" }.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/identity"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User ключ пользователя в контексте
	User Key = "user"
	// Identity ключ проверенной идентичности в контексте
	Identity Key = "identity"
)

// Verifier проверяет ID-токен.
type Verifier interface {
	Verify(ctx context.Context, raw string) (identity.Identity, error)
}

// UserResolver находит или создаёт пользователя по email.
type UserResolver interface {
	GetOrCreate(ctx context.Context, email string) (*models.User, error)
}

// Auth возвращает middleware аутентификации.
func Auth(verifier Verifier, users UserResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Auth"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			id, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				log.Info("invalid identity token", sl.Err(err))
				response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			u, err := users.GetOrCreate(r.Context(), id.Email)
			if err != nil {
				log.Error("failed to resolve user", sl.Err(err))
				response.WriteError(w, r, http.StatusInternalServerError, "internal service error")
				return
			}

			ctx := context.WithValue(r.Context(), Identity, id)
			ctx = WithUser(ctx, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser возвращает контекст с пользователем.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// UserFrom возвращает пользователя, положенного Auth.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(User).(*models.User)
	return u, ok && u != nil
}
