// Package ics формирует календарь iCalendar (RFC 5545) из событий пользователя.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/recurrence"
)

// ProductID значение PRODID календаря.
const ProductID = "-//subbers//events//EN"

// Feed сериализует события в календарь. Повторяющиеся события получают RRULE,
// события с напоминаниями получают VALARM со смещением напоминания.
func Feed(name string, evs []models.Event, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range evs {
		e := cal.AddEvent(ev.ID + "@subbers")
		e.SetDtStampTime(now.UTC())
		e.SetStartAt(ev.StartDate.UTC())
		e.SetSummary(ev.Title)
		if ev.EmailMessage != "" {
			e.SetDescription(ev.EmailMessage)
		}
		if ev.Product != "" {
			e.SetProperty(ical.ComponentPropertyCategories, ev.Product)
		}
		if rule := recurrence.ForEvent(ev).RRule(); rule != "" {
			e.AddRrule(rule)
		}
		if ev.ReminderEnabled {
			alarm := e.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dM", ev.ReminderOffset))
			alarm.SetProperty(ical.ComponentPropertyDescription, ev.Title)
		}
	}
	return cal.Serialize()
}
