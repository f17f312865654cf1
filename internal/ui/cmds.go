package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"chomper/internal/model"
	"chomper/internal/service"
)

type tasksLoadedMsg struct {
	tasks []model.Task
}

type taskCompletedMsg struct {
	task model.Task
}

type opDoneMsg struct {
	status string
}

type errMsg struct {
	err error
}

type settleMsg struct {
	seq int
}

func (m Model) loadTasks() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	tasks, err := m.svc.List(ctx, m.user)
	if err != nil {
		return errMsg{err: err}
	}
	return tasksLoadedMsg{tasks: tasks}
}

func (m Model) createTask(in service.TaskInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		task, err := m.svc.CreateTask(ctx, m.user, in)
		if err != nil {
			return errMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Added %q", task.Text)}
	}
}

func (m Model) updateTask(id string, in service.TaskInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		task, err := m.svc.UpdateTask(ctx, m.user, id, in)
		if err != nil {
			return errMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Updated %q", task.Text)}
	}
}

func (m Model) completeTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		task, err := m.svc.CompleteTask(ctx, m.user, id)
		if err != nil {
			return errMsg{err: err}
		}
		return taskCompletedMsg{task: *task}
	}
}

func (m Model) reopenTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		task, err := m.svc.ReopenTask(ctx, m.user, id)
		if err != nil {
			return errMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Reopened %q", task.Text)}
	}
}

func (m Model) deleteTask(id, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		if err := m.svc.DeleteTask(ctx, m.user, id); err != nil {
			return errMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Deleted %q", text)}
	}
}

func (m Model) clearCompleted() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	n, err := m.svc.ClearCompleted(ctx, m.user)
	if err != nil {
		return errMsg{err: err}
	}
	return opDoneMsg{status: fmt.Sprintf("Cleared %d completed task(s)", n)}
}
