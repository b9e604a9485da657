package airtable

import (
	"time"

	"github.com/magabrotheeeer/subbers/internal/models"
)

// Имена полей таблиц.
const (
	fEmail            = "Email"
	fStripeKey        = "StripeKey"
	fZoomAccessToken  = "ZoomAccessToken"
	fZoomRefreshToken = "ZoomRefreshToken"
	fZoomTokenExpiry  = "ZoomTokenExpiry"

	fUserID           = "UserID"
	fProduct          = "Product"
	fReminderEnabled  = "ReminderEnabled"
	fLastReminderSent = "LastReminderSent"
)

type userFields struct {
	Email            string `json:"Email"`
	StripeKey        string `json:"StripeKey,omitempty"`
	ZoomAccessToken  string `json:"ZoomAccessToken,omitempty"`
	ZoomRefreshToken string `json:"ZoomRefreshToken,omitempty"`
	ZoomTokenExpiry  string `json:"ZoomTokenExpiry,omitempty"`
}

type eventFields struct {
	UserID           string   `json:"UserID"`
	EventTitle       string   `json:"EventTitle"`
	StartDate        string   `json:"StartDate"`
	RecurrenceType   string   `json:"RecurrenceType,omitempty"`
	Interval         *float64 `json:"Interval,omitempty"`
	RecurrenceEnd    string   `json:"RecurrenceEnd,omitempty"`
	TimeZone         string   `json:"TimeZone,omitempty"`
	NextOccurrence   string   `json:"NextOccurrence,omitempty"`
	Product          string   `json:"Product,omitempty"`
	ReminderEnabled  bool     `json:"ReminderEnabled,omitempty"`
	ReminderOffset   *float64 `json:"ReminderOffset,omitempty"`
	LastReminderSent string   `json:"LastReminderSent,omitempty"`
	EmailSubject     string   `json:"EmailSubject,omitempty"`
	EmailMessage     string   `json:"EmailMessage,omitempty"`
}

func userFromRecord(r record[userFields]) *models.User {
	return &models.User{
		ID:        r.ID,
		Email:     r.Fields.Email,
		StripeKey: r.Fields.StripeKey,
		Zoom: models.ZoomTokens{
			AccessToken:  r.Fields.ZoomAccessToken,
			RefreshToken: r.Fields.ZoomRefreshToken,
			Expiry:       parseTime(r.Fields.ZoomTokenExpiry),
		},
	}
}

func eventFromRecord(r record[eventFields]) models.Event {
	f := r.Fields
	ev := models.Event{
		ID:               r.ID,
		UserID:           f.UserID,
		Title:            f.EventTitle,
		RecurrenceType:   f.RecurrenceType,
		RecurrenceEnd:    parseTime(f.RecurrenceEnd),
		TimeZone:         f.TimeZone,
		NextOccurrence:   parseTime(f.NextOccurrence),
		Product:          f.Product,
		ReminderEnabled:  f.ReminderEnabled,
		ReminderOffset:   models.DefaultReminderOffset,
		LastReminderSent: parseTime(f.LastReminderSent),
		EmailSubject:     f.EmailSubject,
		EmailMessage:     f.EmailMessage,
	}
	if start := parseTime(f.StartDate); start != nil {
		ev.StartDate = *start
	}
	if f.Interval != nil {
		ev.Interval = int(*f.Interval)
	}
	if f.ReminderOffset != nil {
		ev.ReminderOffset = int(*f.ReminderOffset)
	}
	return ev
}

func eventToFields(ev models.Event) eventFields {
	interval := float64(ev.Interval)
	offset := float64(ev.ReminderOffset)
	return eventFields{
		UserID:           ev.UserID,
		EventTitle:       ev.Title,
		StartDate:        formatTime(&ev.StartDate),
		RecurrenceType:   ev.RecurrenceType,
		Interval:         &interval,
		RecurrenceEnd:    formatTime(ev.RecurrenceEnd),
		TimeZone:         ev.TimeZone,
		NextOccurrence:   formatTime(ev.NextOccurrence),
		Product:          ev.Product,
		ReminderEnabled:  ev.ReminderEnabled,
		ReminderOffset:   &offset,
		LastReminderSent: formatTime(ev.LastReminderSent),
		EmailSubject:     ev.EmailSubject,
		EmailMessage:     ev.EmailMessage,
	}
}

// parseTime разбирает дату Airtable (ISO 8601 с миллисекундами или без, либо дата без времени).
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// timeValue значение поля даты для PATCH: nil очищает поле.
func timeValue(t *time.Time) any {
	if s := formatTime(t); s != "" {
		return s
	}
	return nil
}
