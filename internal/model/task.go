package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecurrenceType describes how a completed task spawns its successor.
type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
)

func (t RecurrenceType) Valid() bool {
	switch t {
	case RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// Task is a user-owned to-do item, optionally dated and optionally recurring.
// RecurrenceType and RecurrenceDay are set iff IsRecurring is true; for weekly
// tasks RecurrenceDay is a weekday (0-6), for monthly a day of month (1-31).
type Task struct {
	ID             string `gorm:"type:varchar(36);primaryKey"`
	UserID         uint   `gorm:"index"`
	Text           string
	Notes          string `gorm:"type:text"`
	Completed      bool   `gorm:"default:false"`
	DueDate        *time.Time
	IsRecurring    bool           `gorm:"default:false"`
	RecurrenceType RecurrenceType `gorm:"type:varchar(10)"`
	RecurrenceDay  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Task) TableName() string { return "todos" }

// BeforeCreate assigns an opaque id when the store inserts the row.
func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Due reports the task's due date stripped to midnight, or false if it has none.
func (t Task) Due() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	d := *t.DueDate
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()), true
}
