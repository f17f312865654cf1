package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"chomper/internal/model"
	"chomper/internal/repository"
)

// ReminderService builds the daily agenda pushed to users.
type ReminderService struct {
	taskRepo *repository.TaskRepository
}

func NewReminderService(taskRepo *repository.TaskRepository) *ReminderService {
	return &ReminderService{taskRepo: taskRepo}
}

// DailyAgenda renders a summary of what is due today, tomorrow and later this
// week. Returns ok=false when there is nothing worth sending.
func (s *ReminderService) DailyAgenda(ctx context.Context, user model.User, now time.Time) (string, bool, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", false, err
	}

	sections := Organize(tasks, now)
	var laterThisWeek []model.Task
	for _, t := range sections.Upcoming {
		if IsDueThisWeek(t, now) {
			laterThisWeek = append(laterThisWeek, t)
		}
	}

	if len(sections.Today) == 0 && len(sections.Tomorrow) == 0 && len(laterThisWeek) == 0 {
		return "", false, nil
	}

	var b strings.Builder
	b.WriteString("🦖 <b>Chomper daily agenda</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, Jan 2")))

	writeSection(&b, "🔥 Today", sections.Today, now)
	writeSection(&b, "➡️ Tomorrow", sections.Tomorrow, now)
	writeSection(&b, "📅 Later this week", laterThisWeek, now)

	return strings.TrimSpace(b.String()), true, nil
}

func writeSection(b *strings.Builder, title string, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("<b>%s</b>\n", title))
	for _, t := range tasks {
		b.WriteString(formatAgendaLine(t, now))
	}
	b.WriteByte('\n')
}

func formatAgendaLine(t model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case IsOverdue(t, now):
		icon = "⚠️"
	case t.IsRecurring:
		icon = "♻️"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(t.Text)))

	if due, ok := t.Due(); ok && IsOverdue(t, now) {
		sb.WriteString(fmt.Sprintf(" — <b>overdue since %s</b>", due.Format("Jan 2")))
	}
	if t.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(t.Notes)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
