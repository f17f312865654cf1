package service

import (
	"time"

	"chomper/internal/model"
)

// NextOccurrence computes the due date of the successor spawned when a
// recurring task is completed.
//
// Weekly recurrence is always exactly one week after the completed instance's
// due date; the stored weekday is display-only and the result is not
// normalized onto it. That matches the behavior users already rely on, so it
// stays as-is even though the weekday selector suggests otherwise.
//
// Monthly recurrence adds one calendar month with time.AddDate, which
// normalizes overflow (Jan 31 + 1 month lands in early March). When an anchor
// day is set, the day-of-month is then overwritten via time.Date, which
// normalizes too: anchoring day 31 in a 30-day month rolls into the next one.
func NextOccurrence(due time.Time, typ model.RecurrenceType, day int) time.Time {
	switch typ {
	case model.RecurDaily:
		return due.AddDate(0, 0, 1)
	case model.RecurWeekly:
		return due.AddDate(0, 0, 7)
	case model.RecurMonthly:
		next := due.AddDate(0, 1, 0)
		if day > 0 {
			next = time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, next.Location())
		}
		return next
	}
	return due
}

// Successor builds the task record inserted when a recurring task is
// completed. The caller must ensure the task has a due date.
func Successor(t model.Task) model.Task {
	next := NextOccurrence(dateOnly(*t.DueDate), t.RecurrenceType, t.RecurrenceDay)
	return model.Task{
		UserID:         t.UserID,
		Text:           t.Text,
		Notes:          t.Notes,
		Completed:      false,
		DueDate:        &next,
		IsRecurring:    true,
		RecurrenceType: t.RecurrenceType,
		RecurrenceDay:  t.RecurrenceDay,
	}
}

// dateOnly strips the time component.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
