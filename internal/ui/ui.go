// Package ui is the local terminal front end. It talks to the same task
// service as the Telegram bot and refetches the whole list after every
// mutation instead of patching local state.
package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"chomper/internal/chomp"
	"chomper/internal/model"
	"chomper/internal/service"
)

const cmdTimeout = 3 * time.Second

type mode int

const (
	modeList mode = iota
	modeAddTitle
	modeAddNotes
	modeAddDue
	modeAddRecur
	modeAddRecurDay
	modeConfirmDelete
	modeConfirmClear
)

type Model struct {
	svc     *service.TaskService
	user    *model.User
	logger  *log.Logger
	chomper *chomp.Chomper

	tasks    []model.Task
	sections service.Sections
	visible  []model.Task
	cursor   int

	mode       mode
	input      textinput.Model
	draft      service.TaskInput
	editingID  string
	pendingDel *model.Task

	spin      spinner.Model
	busy      bool
	status    string
	effectSeq int
	quitting  bool
}

func Run(svc *service.TaskService, user *model.User, logger *log.Logger) error {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		svc:     svc,
		user:    user,
		logger:  logger,
		chomper: chomp.New(),
		input:   ti,
		spin:    sp,
		status:  "a: add · space: toggle · e: edit · d: delete · c: clear done · q: quit",
	}

	program := tea.NewProgram(m)
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTasks, m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		return m.onTasksLoaded(msg)
	case taskCompletedMsg:
		m.status = fmt.Sprintf("Chomped %q", msg.task.Text)
		if msg.task.IsRecurring {
			m.status += " — next occurrence queued"
		}
		// The chomp plays only once the store confirmed the completion; a
		// failed call comes back as errMsg and never animates.
		cmds := []tea.Cmd{m.loadTasks}
		if effect, ok := m.chomper.TaskChomped(); ok {
			cmds = append(cmds, m.scheduleSettle(effect))
		}
		return m, tea.Batch(cmds...)
	case opDoneMsg:
		m.status = msg.status
		return m, m.loadTasks
	case errMsg:
		// Local state stays as-is; every failure is terminal for that action.
		m.busy = false
		m.status = "✗ " + userFacing(msg.err)
		m.logger.Error("store call failed", "error", msg.err)
		return m, nil
	case settleMsg:
		// A stale timer from a superseded effect carries an old sequence
		// number and is ignored.
		if msg.seq == m.effectSeq {
			m.chomper.Settle()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) onTasksLoaded(msg tasksLoadedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.tasks = msg.tasks
	m.sections = service.Organize(msg.tasks, time.Now())
	m.visible = flatten(m.sections)
	m.cursor = clampCursor(m.cursor, len(m.visible))

	if effect, ok := m.chomper.TrackCount(service.CountIncomplete(msg.tasks)); ok {
		return m, m.scheduleSettle(effect)
	}
	return m, nil
}

func (m *Model) scheduleSettle(effect chomp.Effect) tea.Cmd {
	m.effectSeq++
	seq := m.effectSeq
	return tea.Tick(effect.Duration, func(time.Time) tea.Msg {
		return settleMsg{seq: seq}
	})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeList:
		return m.updateListMode(key)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(key)
	case modeConfirmClear:
		return m.updateClearConfirm(key)
	default:
		return m.updateAddMode(key, msg)
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	// Mutations are one at a time; the spinner shows while a store call is in
	// flight and re-submission is blocked.
	if m.busy {
		return m, nil
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.visible))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.visible))
	case "a":
		m.mode = modeAddTitle
		m.draft = service.TaskInput{}
		m.editingID = ""
		m.input.Placeholder = "What needs to be done?"
		m.input.SetValue("")
		m.input.Focus()
		m.status = "New task: title (enter to continue, esc to cancel)"
	case "e":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		m.mode = modeAddTitle
		m.editingID = task.ID
		// Recurrence settings survive the edit; the staged flow only walks
		// title, notes and due date.
		m.draft = service.TaskInput{
			Notes:          task.Notes,
			IsRecurring:    task.IsRecurring,
			RecurrenceType: task.RecurrenceType,
			RecurrenceDay:  task.RecurrenceDay,
		}
		m.input.Placeholder = "Title"
		m.input.SetValue(task.Text)
		m.input.Focus()
		m.status = fmt.Sprintf("Editing %q: title (enter to continue, esc to cancel)", task.Text)
	case " ":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		if task.Completed {
			m.busy = true
			m.status = "Reopening..."
			return m, m.reopenTask(task.ID)
		}
		m.busy = true
		m.status = "Chomping..."
		return m, m.completeTask(task.ID)
	case "d":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		t := task
		m.pendingDel = &t
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete %q? (y/n)", t.Text)
	case "c":
		if len(m.sections.Completed) == 0 {
			m.status = "Nothing completed to clear"
			return m, nil
		}
		m.mode = modeConfirmClear
		m.status = fmt.Sprintf("Delete %d completed task(s)? (y/n)", len(m.sections.Completed))
	case "r":
		m.busy = true
		m.status = "Refreshing..."
		return m, m.loadTasks
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y":
		id := m.pendingDel.ID
		text := m.pendingDel.Text
		m.pendingDel = nil
		m.mode = modeList
		m.busy = true
		m.status = "Deleting..."
		return m, m.deleteTask(id, text)
	case "n", "esc":
		m.pendingDel = nil
		m.mode = modeList
		m.status = "Cancelled"
	}
	return m, nil
}

func (m Model) updateClearConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y":
		m.mode = modeList
		m.busy = true
		m.status = "Clearing..."
		return m, m.clearCompleted
	case "n", "esc":
		m.mode = modeList
		m.status = "Cancelled"
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		return m.advanceAddFlow()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// advanceAddFlow walks the staged add dialog: title, notes, due date,
// recurrence, anchor day. Validation failures keep the stage and explain.
func (m Model) advanceAddFlow() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeAddTitle:
		if value == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		m.draft.Text = value
		m.mode = modeAddNotes
		m.input.SetValue(m.draft.Notes)
		m.input.Placeholder = "Notes (optional)"
		m.status = "Notes (enter to skip)"
	case modeAddNotes:
		m.draft.Notes = value
		m.mode = modeAddDue
		m.input.SetValue("")
		if m.editingID != "" {
			m.input.Placeholder = "today / tomorrow / 2026-09-15"
			m.status = "Due date (required for edits)"
		} else {
			m.input.Placeholder = "today / tomorrow / 2026-09-15 / blank for someday"
			m.status = "Due date"
		}
	case modeAddDue:
		due, someday, err := parseDue(value, time.Now())
		if err != nil {
			m.status = "Can't read that date, use YYYY-MM-DD"
			return m, nil
		}
		if someday {
			// Edits always need a due date, same rule as the original form.
			if m.editingID != "" {
				m.status = "Edited tasks need a due date"
				return m, nil
			}
			m.draft.DueDate = nil
		} else {
			m.draft.DueDate = &due
		}
		if m.editingID != "" {
			return m.submitDraft()
		}
		m.mode = modeAddRecur
		m.input.SetValue("")
		m.input.Placeholder = "blank = no, d = daily, w = weekly, m = monthly"
		m.status = "Repeat?"
	case modeAddRecur:
		switch strings.ToLower(value) {
		case "":
			return m.submitDraft()
		case "d", "daily":
			m.draft.IsRecurring = true
			m.draft.RecurrenceType = model.RecurDaily
			return m.submitDraft()
		case "w", "weekly":
			m.draft.IsRecurring = true
			m.draft.RecurrenceType = model.RecurWeekly
			m.mode = modeAddRecurDay
			m.input.SetValue("")
			m.input.Placeholder = "weekday 0-6 (0 = Sunday)"
			m.status = "Which weekday?"
		case "m", "monthly":
			m.draft.IsRecurring = true
			m.draft.RecurrenceType = model.RecurMonthly
			m.mode = modeAddRecurDay
			m.input.SetValue("")
			m.input.Placeholder = "day of month 1-31"
			m.status = "Which day of the month?"
		default:
			m.status = "Blank, d, w or m"
		}
	case modeAddRecurDay:
		day, err := strconv.Atoi(value)
		if err != nil {
			m.status = "The day must be a number"
			return m, nil
		}
		m.draft.RecurrenceDay = day
		return m.submitDraft()
	}
	return m, nil
}

func (m Model) submitDraft() (tea.Model, tea.Cmd) {
	// Validation errors come back before any store call; keep the dialog
	// open on the failing field where possible.
	if m.draft.IsRecurring && m.draft.DueDate == nil {
		m.mode = modeAddDue
		m.input.SetValue("")
		m.input.Placeholder = "today / tomorrow / 2026-09-15"
		m.status = "A repeating task needs a due date"
		return m, nil
	}

	m.mode = modeList
	m.input.Blur()
	m.busy = true
	m.status = "Saving..."
	draft := m.draft
	if m.editingID != "" {
		id := m.editingID
		m.editingID = ""
		return m, m.updateTask(id, draft)
	}
	return m, m.createTask(draft)
}

func (m Model) current() (model.Task, bool) {
	if len(m.visible) == 0 || m.cursor >= len(m.visible) {
		return model.Task{}, false
	}
	return m.visible[m.cursor], true
}

func flatten(s service.Sections) []model.Task {
	out := make([]model.Task, 0,
		len(s.Today)+len(s.Tomorrow)+len(s.Upcoming)+len(s.Someday)+len(s.Completed))
	out = append(out, s.Today...)
	out = append(out, s.Tomorrow...)
	out = append(out, s.Upcoming...)
	out = append(out, s.Someday...)
	out = append(out, s.Completed...)
	return out
}

func clampCursor(cursor, length int) int {
	if length == 0 {
		return 0
	}
	if cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}

func parseDue(value string, now time.Time) (due time.Time, someday bool, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(value) {
	case "", "someday":
		return time.Time{}, true, nil
	case "today":
		return today, false, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), false, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed, false, nil
}

func userFacing(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrEmptyTitle):
		return "title cannot be empty"
	case errors.Is(err, service.ErrDueDateRequired):
		return "a due date is required"
	case errors.Is(err, service.ErrInvalidRecurrence):
		return "those recurrence settings don't add up"
	case errors.Is(err, service.ErrNextOccurrence):
		return "couldn't create the next occurrence, task left unfinished"
	}
	return "store error, nothing was changed"
}
