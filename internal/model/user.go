package model

import "time"

// User identifies a task owner. Telegram users carry their Telegram id; the
// terminal client runs as a single local user with TelegramID 0.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"index"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
