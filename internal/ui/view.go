package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"chomper/internal/model"
	"chomper/internal/service"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	bucketStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noteStyle     = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	bubbleStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("208"))
	statusStyle   = lipgloss.NewStyle().Faint(true)
	errStatusMark = "✗"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	face, speech := m.chomper.Present()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		headerStyle.Render(" "+face+" "),
		bubbleStyle.Render(speech),
	))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(noteStyle.Render("No tasks yet. Press 'a' to add one."))
		b.WriteString("\n")
	} else {
		m.renderSections(&b)
	}

	b.WriteString("\n")
	if m.mode >= modeAddTitle && m.mode <= modeAddRecurDay {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	status := m.status
	if m.busy {
		status = m.spin.View() + " " + status
	}
	style := statusStyle
	if strings.HasPrefix(m.status, errStatusMark) {
		style = overdueStyle
	}
	b.WriteString(style.Render(status))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderSections(b *strings.Builder) {
	now := time.Now()
	idx := 0

	groups := []struct {
		name  string
		tasks []model.Task
	}{
		{service.BucketToday.String(), m.sections.Today},
		{service.BucketTomorrow.String(), m.sections.Tomorrow},
		{service.BucketUpcoming.String(), m.sections.Upcoming},
		{service.BucketSomeday.String(), m.sections.Someday},
		{service.BucketCompleted.String(), m.sections.Completed},
	}

	for _, group := range groups {
		if len(group.tasks) == 0 {
			continue
		}
		b.WriteString(bucketStyle.Render(fmt.Sprintf("%s · %d", strings.ToUpper(group.name), len(group.tasks))))
		b.WriteString("\n")
		for _, task := range group.tasks {
			b.WriteString(m.renderTask(task, idx == m.cursor, now))
			idx++
		}
		b.WriteString("\n")
	}
}

func (m Model) renderTask(t model.Task, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}

	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	title := t.Text
	if t.Completed {
		title = doneStyle.Render(title)
	}

	var meta []string
	if due, ok := t.Due(); ok && !t.Completed {
		label := due.Format("Jan 2")
		if service.IsToday(t, now) {
			label = "today"
		} else if service.IsOverdue(t, now) {
			label = overdueStyle.Render("was due " + due.Format("Jan 2"))
		}
		meta = append(meta, label)
	}
	if t.IsRecurring {
		meta = append(meta, "↻ "+string(t.RecurrenceType))
	}

	line := fmt.Sprintf("%s%s %s", cursor, check, title)
	if len(meta) > 0 {
		line += noteStyle.Render("  (" + strings.Join(meta, ", ") + ")")
	}
	if t.Notes != "" {
		line += "\n      " + noteStyle.Render(t.Notes)
	}
	return line + "\n"
}
