package model

import (
	"time"

	"github.com/kuwago/lending/internal/domain/event"
)

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	return append([]event.DomainEvent{}, src...)
}

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves a calendar date forward by n months, clamping the day to the
// last day of the target month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := date.UTC().Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
