// Package response содержит типы JSON-ответов HTTP-обработчиков и
// вспомогательные функции для ошибок в едином формате { "error": "..." }.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error" example:"Unauthorized"`
}

// MessageResponse тело ответа с сообщением об успехе.
type MessageResponse struct {
	Message string `json:"message" example:"Stripe key saved"`
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// Message возвращает MessageResponse с переданным сообщением.
func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}

// WriteError пишет ошибку со статусом code.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}

// ValidationError формирует ErrorResponse на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return ErrorResponse{Error: strings.Join(errsMsgs, ", ")}
}
