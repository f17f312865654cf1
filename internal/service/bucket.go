package service

import (
	"sort"
	"time"

	"chomper/internal/model"
)

// Bucket is one of the mutually exclusive display groups a task lands in.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketTomorrow
	BucketUpcoming
	BucketSomeday
	BucketCompleted
)

func (b Bucket) String() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketTomorrow:
		return "Tomorrow"
	case BucketUpcoming:
		return "Upcoming"
	case BucketSomeday:
		return "Someday"
	case BucketCompleted:
		return "Completed"
	}
	return "Unknown"
}

// Sections holds the display partition of a task list. Every task appears in
// exactly one section.
type Sections struct {
	Today     []model.Task
	Tomorrow  []model.Task
	Upcoming  []model.Task
	Someday   []model.Task
	Completed []model.Task
}

// Classify places a task into its bucket using date-only comparison.
// Completed tasks always segregate into their own group; a due date in the
// past folds into Today, there is no separate overdue bucket.
func Classify(t model.Task, now time.Time) Bucket {
	if t.Completed {
		return BucketCompleted
	}
	due, ok := t.Due()
	if !ok {
		return BucketSomeday
	}
	today := dateOnly(now)
	tomorrow := today.AddDate(0, 0, 1)
	switch {
	case due.Equal(today):
		return BucketToday
	case due.Equal(tomorrow):
		return BucketTomorrow
	case due.After(tomorrow):
		return BucketUpcoming
	default:
		return BucketToday
	}
}

// Organize partitions tasks into display sections and sorts each one: date
// buckets by due date ascending (falling back to newest-created first), the
// completed group by last update descending.
func Organize(tasks []model.Task, now time.Time) Sections {
	var s Sections
	for _, t := range tasks {
		switch Classify(t, now) {
		case BucketToday:
			s.Today = append(s.Today, t)
		case BucketTomorrow:
			s.Tomorrow = append(s.Tomorrow, t)
		case BucketUpcoming:
			s.Upcoming = append(s.Upcoming, t)
		case BucketSomeday:
			s.Someday = append(s.Someday, t)
		case BucketCompleted:
			s.Completed = append(s.Completed, t)
		}
	}

	for _, sec := range []*[]model.Task{&s.Today, &s.Tomorrow, &s.Upcoming, &s.Someday} {
		sortByDue(*sec)
	}
	sortByUpdated(s.Completed)
	return s
}

func sortByDue(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, aok := tasks[i].Due()
		b, bok := tasks[j].Due()
		if aok && bok && !a.Equal(b) {
			return a.Before(b)
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

func sortByUpdated(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a := tasks[i].UpdatedAt
		if a.IsZero() {
			a = tasks[i].CreatedAt
		}
		b := tasks[j].UpdatedAt
		if b.IsZero() {
			b = tasks[j].CreatedAt
		}
		return a.After(b)
	})
}

// IsToday reports whether the task is due on the current calendar date.
func IsToday(t model.Task, now time.Time) bool {
	due, ok := t.Due()
	return ok && due.Equal(dateOnly(now))
}

// IsDueThisWeek reports whether the task is due within [today, today+7d],
// bounds inclusive.
func IsDueThisWeek(t model.Task, now time.Time) bool {
	due, ok := t.Due()
	if !ok {
		return false
	}
	today := dateOnly(now)
	return !due.Before(today) && !due.After(today.AddDate(0, 0, 7))
}

// IsDueThisMonth reports whether the task is due in the current calendar
// month and year.
func IsDueThisMonth(t model.Task, now time.Time) bool {
	due, ok := t.Due()
	return ok && due.Month() == now.Month() && due.Year() == now.Year()
}

// IsOverdue reports whether the task's due date is strictly in the past.
func IsOverdue(t model.Task, now time.Time) bool {
	due, ok := t.Due()
	return ok && due.Before(dateOnly(now))
}

// CountIncomplete counts tasks not yet completed.
func CountIncomplete(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}
