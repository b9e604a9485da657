package models

import "time"

// Reminder сообщение о наступившем напоминании, публикуемое планировщиком.
type Reminder struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Product      string    `json:"product,omitempty"`
	Occurrence   time.Time `json:"occurrence"`
	RemindAt     time.Time `json:"remind_at"`
	EmailSubject string    `json:"email_subject,omitempty"`
	EmailMessage string    `json:"email_message,omitempty"`
}
