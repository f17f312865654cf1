package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chomper/internal/model"
	"chomper/internal/service"
)

func escape(s string) string {
	return html.EscapeString(s)
}

// userFacing strips wrapped store detail off validation errors so the user
// sees the reason, not the plumbing.
func userFacing(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyTitle):
		return "the title can't be empty"
	case errors.Is(err, service.ErrDueDateRequired):
		return "a due date is required"
	case errors.Is(err, service.ErrInvalidRecurrence):
		return "those recurrence settings don't add up"
	}
	return "store error, nothing was changed"
}

func formatTaskLine(t model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case service.IsOverdue(t, now):
		icon = "⚠️"
	case t.IsRecurring:
		icon = "♻️"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, escape(t.Text)))

	if due, ok := t.Due(); ok {
		switch {
		case service.IsOverdue(t, now):
			sb.WriteString(fmt.Sprintf(" · <b>was due %s</b>", due.Format("Jan 2")))
		case !service.IsToday(t, now):
			sb.WriteString(fmt.Sprintf(" · %s", due.Format("Jan 2")))
		}
	}
	if t.IsRecurring {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", describeRecurrence(t)))
	}
	if t.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", escape(t.Notes)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func describeRecurrence(t model.Task) string {
	switch t.RecurrenceType {
	case model.RecurDaily:
		return "daily"
	case model.RecurWeekly:
		return "weekly, " + time.Weekday(t.RecurrenceDay).String()
	case model.RecurMonthly:
		return fmt.Sprintf("monthly, day %d", t.RecurrenceDay)
	}
	return ""
}

func taskButtonRow(t model.Task) []tgbotapi.InlineKeyboardButton {
	return []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(t.Text, 18), cbCompletePrefix+t.ID),
		tgbotapi.NewInlineKeyboardButtonData("✏️", cbEditPrefix+t.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+t.ID),
	}
}

func shortTitle(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

// parseDueInput understands the quick-pick labels and plain ISO dates.
// someday=true means the user explicitly chose no due date.
func parseDueInput(text string, now time.Time) (due time.Time, someday bool, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnToday), "today":
		return today, false, nil
	case strings.ToLower(btnTomorrow), "tomorrow":
		return today.AddDate(0, 0, 1), false, nil
	case strings.ToLower(btnSomeday), "someday", "none":
		return time.Time{}, true, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(text), now.Location())
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed, false, nil
}

func isSkipInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnSkip) || t == "skip" || t == "-"
}

func isConfirmInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnConfirm) || t == "confirm" || t == "yes" || t == "y"
}

// isCancelInput matches only the explicit cancel button and the bare word, so
// a "no" answer inside a dialog is not mistaken for a global abort.
func isCancelInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnCancel) || t == "cancel"
}

func isDeclineInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "no" || t == "n"
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelClear),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func dueDateKeyboard(allowSomeday bool) tgbotapi.ReplyKeyboardMarkup {
	row := []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(btnToday),
		tgbotapi.NewKeyboardButton(btnTomorrow),
	}
	if allowSomeday {
		row = append(row, tgbotapi.NewKeyboardButton(btnSomeday))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYes),
			tgbotapi.NewKeyboardButton(btnNo),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func recurTypeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Daily"),
			tgbotapi.NewKeyboardButton("Weekly"),
			tgbotapi.NewKeyboardButton("Monthly"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
