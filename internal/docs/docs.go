// Package docs регистрирует описание API для Swagger UI (/docs/*).
// Аннотации находятся на ServeHTTP обработчиков; шаблон обновляется через swag init.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/get-events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Список событий",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/list.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/create-event": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Создать событие",
                "parameters": [
                    {"description": "Данные события", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DummyEvent"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/create.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/update-event-product": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Привязать продукт к событию",
                "parameters": [
                    {"description": "id события и название продукта", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ProductAssignment"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/events.ics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/calendar"],
                "tags": ["Events"],
                "summary": "Календарь событий",
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            }
        },
        "/get-subscribers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Subscribers"],
                "summary": "Список подписчиков",
                "parameters": [
                    {"type": "string", "description": "all: без фильтра по статусу", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/subscribers.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/get-user": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Текущий пользователь",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UserInfo"}}}
            }
        },
        "/save-stripe-key": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Сохранить ключ Stripe",
                "parameters": [
                    {"description": "Секретный ключ Stripe", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/savekey.Request"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.MessageResponse"}}}
            }
        },
        "/stripe/oauth-url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["OAuth"],
                "summary": "Ссылка OAuth-подключения",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/authurl.Response"}}}
            }
        },
        "/zoom/oauth-url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["OAuth"],
                "summary": "Ссылка OAuth-подключения",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/authurl.Response"}}}
            }
        },
        "/stripe/callback": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["OAuth"],
                "summary": "OAuth callback",
                "parameters": [
                    {"type": "string", "name": "code", "in": "query", "required": true},
                    {"type": "string", "name": "state", "in": "query", "required": true}
                ],
                "responses": {"302": {"description": "Found"}, "400": {"description": "Bad Request"}}
            }
        },
        "/zoom/callback": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["OAuth"],
                "summary": "OAuth callback",
                "parameters": [
                    {"type": "string", "name": "code", "in": "query", "required": true},
                    {"type": "string", "name": "state", "in": "query", "required": true}
                ],
                "responses": {"302": {"description": "Found"}, "400": {"description": "Bad Request"}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Проверка здоровья",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "response.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "Unauthorized"}}
        },
        "response.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "Stripe key saved"}}
        },
        "models.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userID": {"type": "string"},
                "eventTitle": {"type": "string"},
                "StartDate": {"type": "string"},
                "recurrenceType": {"type": "string", "enum": ["none", "daily", "weekly", "monthly"]},
                "interval": {"type": "integer"},
                "recurrenceEnd": {"type": "string"},
                "timeZone": {"type": "string"},
                "nextOccurrence": {"type": "string"},
                "product": {"type": "string"},
                "reminderEnabled": {"type": "boolean"},
                "reminderOffset": {"type": "integer"},
                "lastReminderSent": {"type": "string"},
                "emailSubject": {"type": "string"},
                "emailMessage": {"type": "string"}
            }
        },
        "models.DummyEvent": {
            "type": "object",
            "required": ["eventTitle", "startDate"],
            "properties": {
                "eventTitle": {"type": "string"},
                "startDate": {"type": "string", "example": "2024-01-01T10:00:00Z"},
                "recurrenceType": {"type": "string", "enum": ["none", "daily", "weekly", "monthly"]},
                "interval": {"type": "integer", "example": 1},
                "recurrenceEnd": {"type": "string"},
                "timeZone": {"type": "string", "example": "Europe/Berlin"},
                "emailSubject": {"type": "string"},
                "emailMessage": {"type": "string"},
                "reminderOffset": {"type": "integer", "example": 60},
                "reminderEnabled": {"type": "boolean"},
                "product": {"type": "string"}
            }
        },
        "models.ProductAssignment": {
            "type": "object",
            "required": ["eventId", "product"],
            "properties": {"eventId": {"type": "string"}, "product": {"type": "string"}}
        },
        "models.Subscriber": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "subscription_status": {"type": "string"},
                "plan_name": {"type": "string"},
                "product_name": {"type": "string"},
                "amount_charged": {"type": "string", "example": "19.99"},
                "currency": {"type": "string"},
                "current_period_end": {"type": "string"},
                "trial_end": {"type": "string"},
                "subscription_start": {"type": "string"},
                "billing_interval": {"type": "string"},
                "discount": {"type": "string", "example": "20% off"}
            }
        },
        "models.UserInfo": {
            "type": "object",
            "properties": {
                "stripeKey": {"type": "string", "example": "****4242"},
                "userID": {"type": "string"},
                "zoomConnected": {"type": "boolean"}
            }
        },
        "list.Response": {
            "type": "object",
            "properties": {"events": {"type": "array", "items": {"$ref": "#/definitions/models.Event"}}}
        },
        "create.Response": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Event created"},
                "event": {"$ref": "#/definitions/models.Event"}
            }
        },
        "subscribers.Response": {
            "type": "object",
            "properties": {"subscribers": {"type": "array", "items": {"$ref": "#/definitions/models.Subscriber"}}}
        },
        "savekey.Request": {
            "type": "object",
            "required": ["stripeKey"],
            "properties": {"stripeKey": {"type": "string"}}
        },
        "authurl.Response": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo информация об API, используемая swag.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Subbers API",
	Description:      "События с повторениями, напоминания и подписчики Stripe.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
