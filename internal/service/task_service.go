package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chomper/internal/model"
	"chomper/internal/repository"
)

// Validation and failure sentinels. Validation errors fire before any store
// call; ErrNextOccurrence marks the distinct failure mode where the successor
// of a recurring task could not be inserted (the predecessor is then left
// incomplete).
var (
	ErrEmptyTitle        = errors.New("task title is empty")
	ErrDueDateRequired   = errors.New("due date is required")
	ErrInvalidRecurrence = errors.New("invalid recurrence settings")
	ErrNextOccurrence    = errors.New("failed to create next recurring task")
)

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	Text           string
	Notes          string
	DueDate        *time.Time
	IsRecurring    bool
	RecurrenceType model.RecurrenceType
	RecurrenceDay  int
}

// taskStore is the slice of the task repository the service needs.
type taskStore interface {
	ListByUser(ctx context.Context, userID uint) ([]model.Task, error)
	FindByID(ctx context.Context, userID uint, id string) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID uint, id string) error
	DeleteMany(ctx context.Context, userID uint, ids []string) error
}

var _ taskStore = (*repository.TaskRepository)(nil)

// TaskService wraps task business logic on top of the repository.
type TaskService struct {
	repo taskStore
}

func NewTaskService(repo taskStore) *TaskService {
	return &TaskService{repo: repo}
}

// normalize trims the input and validates it. A recurring task cannot exist
// without a due date, and its anchor day must fit the recurrence type.
func normalize(in TaskInput) (TaskInput, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Text == "" {
		return in, ErrEmptyTitle
	}
	if in.DueDate != nil {
		d := dateOnly(*in.DueDate)
		in.DueDate = &d
	}
	if in.IsRecurring {
		if in.DueDate == nil {
			return in, ErrDueDateRequired
		}
		if !in.RecurrenceType.Valid() {
			return in, ErrInvalidRecurrence
		}
		switch in.RecurrenceType {
		case model.RecurWeekly:
			if in.RecurrenceDay < 0 || in.RecurrenceDay > 6 {
				return in, fmt.Errorf("%w: weekday must be 0-6", ErrInvalidRecurrence)
			}
		case model.RecurMonthly:
			if in.RecurrenceDay < 1 || in.RecurrenceDay > 31 {
				return in, fmt.Errorf("%w: day of month must be 1-31", ErrInvalidRecurrence)
			}
		case model.RecurDaily:
			in.RecurrenceDay = 0
		}
	} else {
		in.RecurrenceType = ""
		in.RecurrenceDay = 0
	}
	return in, nil
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, in TaskInput) (*model.Task, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:         user.ID,
		Text:           in.Text,
		Notes:          in.Notes,
		DueDate:        in.DueDate,
		IsRecurring:    in.IsRecurring,
		RecurrenceType: in.RecurrenceType,
		RecurrenceDay:  in.RecurrenceDay,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, id string) (*model.Task, error) {
	return s.repo.FindByID(ctx, user.ID, id)
}

// UpdateTask edits a task's fields. A due date is required when editing, same
// as in the original edit form.
func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, id string, in TaskInput) (*model.Task, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	if in.DueDate == nil {
		return nil, ErrDueDateRequired
	}

	task, err := s.repo.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}

	task.Text = in.Text
	task.Notes = in.Notes
	task.DueDate = in.DueDate
	task.IsRecurring = in.IsRecurring
	task.RecurrenceType = in.RecurrenceType
	task.RecurrenceDay = in.RecurrenceDay
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask marks a task done. For a recurring task the successor row is
// inserted first and only then is the predecessor marked completed; if the
// insert fails the predecessor stays incomplete and the error is surfaced.
// The two writes are sequential with no atomicity guarantee.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, id string) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return task, nil
	}

	if task.IsRecurring {
		if task.DueDate == nil {
			return nil, fmt.Errorf("%w: recurring task has no due date", ErrInvalidRecurrence)
		}
		succ := Successor(*task)
		if err := s.repo.Create(ctx, &succ); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNextOccurrence, err)
		}
	}

	task.Completed = true
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ReopenTask clears the completed flag. No recurrence bookkeeping happens on
// the way back.
func (s *TaskService) ReopenTask(ctx context.Context, user *model.User, id string) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if !task.Completed {
		return task, nil
	}
	task.Completed = false
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, id string) error {
	return s.repo.Delete(ctx, user.ID, id)
}

// ClearCompleted bulk-deletes every completed task and reports how many went.
func (s *TaskService) ClearCompleted(ctx context.Context, user *model.User) (int, error) {
	tasks, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, t := range tasks {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repo.DeleteMany(ctx, user.ID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
