// Package models содержит доменные структуры сервиса: события с правилами
// повторения, пользователей, представление подписчиков и сообщения-напоминания.
package models

import "time"

// Event представляет событие пользователя с правилом повторения и настройками напоминания.
// NextOccurrence вычисляется при чтении и равен nil, когда повторения закончились.
type Event struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userID"`
	Title            string     `json:"eventTitle"`
	StartDate        time.Time  `json:"StartDate"`
	RecurrenceType   string     `json:"recurrenceType"`
	Interval         int        `json:"interval"`
	RecurrenceEnd    *time.Time `json:"recurrenceEnd"`
	TimeZone         string     `json:"timeZone"`
	NextOccurrence   *time.Time `json:"nextOccurrence"`
	Product          string     `json:"product"`
	ReminderEnabled  bool       `json:"reminderEnabled"`
	ReminderOffset   int        `json:"reminderOffset"` // минуты до наступления
	LastReminderSent *time.Time `json:"lastReminderSent"`
	EmailSubject     string     `json:"emailSubject"`
	EmailMessage     string     `json:"emailMessage"`
}

// DefaultReminderOffset используется, если смещение напоминания не задано.
const DefaultReminderOffset = 60

// DummyEvent используется для приёма формы создания события из JSON-запроса,
// прежде чем конвертировать её в Event. Даты приходят строками в RFC 3339.
type DummyEvent struct {
	Title           string `json:"eventTitle" validate:"required"`
	StartDate       string `json:"startDate" validate:"required"`
	RecurrenceType  string `json:"recurrenceType" validate:"omitempty,oneof=none daily weekly monthly"`
	Interval        int    `json:"interval" validate:"gte=0"`
	RecurrenceEnd   string `json:"recurrenceEnd,omitempty"`
	TimeZone        string `json:"timeZone"`
	EmailSubject    string `json:"emailSubject"`
	EmailMessage    string `json:"emailMessage"`
	ReminderOffset  *int   `json:"reminderOffset,omitempty" validate:"omitempty,gte=0"`
	ReminderEnabled bool   `json:"reminderEnabled"`
	Product         string `json:"product"`
}

// ProductAssignment тело запроса на привязку продукта к событию.
type ProductAssignment struct {
	EventID string `json:"eventId" validate:"required"`
	Product string `json:"product" validate:"required"`
}
