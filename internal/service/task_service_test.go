package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"chomper/internal/model"
	"chomper/internal/repository"
)

func newTestRepo(t *testing.T) (*repository.TaskRepository, *model.User, context.Context) {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx := context.Background()
	user, err := repository.NewUserRepository(db).UpsertLocal(ctx, "tester")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return repository.NewTaskRepository(db), user, ctx
}

func newTestService(t *testing.T) (*TaskService, *model.User, context.Context) {
	t.Helper()
	repo, user, ctx := newTestRepo(t)
	return NewTaskService(repo), user, ctx
}

// failingCreateStore passes everything through to the real repository until
// failCreate flips, from then on inserts are refused.
type failingCreateStore struct {
	*repository.TaskRepository
	failCreate bool
}

func (s *failingCreateStore) Create(ctx context.Context, task *model.Task) error {
	if s.failCreate {
		return errors.New("store unavailable")
	}
	return s.TaskRepository.Create(ctx, task)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, user, ctx := newTestService(t)
	due := date(2024, time.June, 10)

	cases := []struct {
		name string
		in   TaskInput
		want error
	}{
		{"empty title", TaskInput{Text: ""}, ErrEmptyTitle},
		{"whitespace title", TaskInput{Text: "   \t"}, ErrEmptyTitle},
		{"recurring without due date", TaskInput{Text: "water plants", IsRecurring: true, RecurrenceType: model.RecurDaily}, ErrDueDateRequired},
		{"recurring without type", TaskInput{Text: "water plants", DueDate: &due, IsRecurring: true}, ErrInvalidRecurrence},
		{"weekly day out of range", TaskInput{Text: "x", DueDate: &due, IsRecurring: true, RecurrenceType: model.RecurWeekly, RecurrenceDay: 7}, ErrInvalidRecurrence},
		{"monthly day zero", TaskInput{Text: "x", DueDate: &due, IsRecurring: true, RecurrenceType: model.RecurMonthly, RecurrenceDay: 0}, ErrInvalidRecurrence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTask(ctx, user, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("CreateTask err = %v, want %v", err, tc.want)
			}
		})
	}

	tasks, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("rejected inputs must not reach the store, found %d tasks", len(tasks))
	}
}

func TestCreateTaskNormalizesInput(t *testing.T) {
	svc, user, ctx := newTestService(t)
	due := time.Date(2024, time.June, 10, 17, 45, 12, 0, time.UTC)

	task, err := svc.CreateTask(ctx, user, TaskInput{
		Text:           "  buy milk  ",
		Notes:          " the oat one \n",
		DueDate:        &due,
		RecurrenceType: model.RecurWeekly,
		RecurrenceDay:  3,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if task.ID == "" {
		t.Error("created task has no id")
	}
	if task.Text != "buy milk" || task.Notes != "the oat one" {
		t.Errorf("text/notes not trimmed: %q / %q", task.Text, task.Notes)
	}
	if got, ok := task.Due(); !ok || got.Format("2006-01-02") != "2024-06-10" {
		t.Errorf("due = %v, want 2024-06-10", task.DueDate)
	}
	if h, m, s := task.DueDate.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("due date kept a time-of-day: %v", task.DueDate)
	}
	// Recurrence settings on a non-recurring task are dropped.
	if task.IsRecurring || task.RecurrenceType != "" || task.RecurrenceDay != 0 {
		t.Errorf("recurrence fields not cleared: %+v", task)
	}
}

func TestCompleteNonRecurring(t *testing.T) {
	svc, user, ctx := newTestService(t)
	task, err := svc.CreateTask(ctx, user, TaskInput{Text: "one-off"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	done, err := svc.CompleteTask(ctx, user, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !done.Completed {
		t.Error("task not marked completed")
	}

	tasks, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("non-recurring completion spawned rows: have %d, want 1", len(tasks))
	}

	// Completing again is a no-op.
	if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("second CompleteTask: %v", err)
	}
	if tasks, _ = svc.List(ctx, user); len(tasks) != 1 {
		t.Errorf("repeat completion changed row count to %d", len(tasks))
	}
}

func TestCompleteRecurringSpawnsSuccessor(t *testing.T) {
	svc, user, ctx := newTestService(t)
	due := date(2024, time.June, 10)

	task, err := svc.CreateTask(ctx, user, TaskInput{
		Text:           "water the plants",
		DueDate:        &due,
		IsRecurring:    true,
		RecurrenceType: model.RecurWeekly,
		RecurrenceDay:  1,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	tasks, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("have %d tasks after recurring completion, want 2", len(tasks))
	}

	var orig, succ *model.Task
	for i := range tasks {
		if tasks[i].ID == task.ID {
			orig = &tasks[i]
		} else {
			succ = &tasks[i]
		}
	}
	if orig == nil || succ == nil {
		t.Fatalf("could not find both rows in %+v", tasks)
	}
	if !orig.Completed {
		t.Error("original task not completed")
	}
	if succ.Completed {
		t.Error("successor must start incomplete")
	}
	if succ.Text != task.Text || !succ.IsRecurring || succ.RecurrenceType != model.RecurWeekly {
		t.Errorf("successor fields wrong: %+v", succ)
	}
	if d, ok := succ.Due(); !ok || d.Format("2006-01-02") != "2024-06-17" {
		t.Errorf("successor due = %v, want 2024-06-17", succ.DueDate)
	}

	// Completing the already-done predecessor again spawns nothing new.
	if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("repeat CompleteTask: %v", err)
	}
	if tasks, _ = svc.List(ctx, user); len(tasks) != 2 {
		t.Errorf("repeat completion spawned rows: have %d, want 2", len(tasks))
	}
}

func TestCompleteRecurringInsertFailureLeavesTaskIncomplete(t *testing.T) {
	repo, user, ctx := newTestRepo(t)
	store := &failingCreateStore{TaskRepository: repo}
	svc := NewTaskService(store)

	due := date(2024, time.June, 10)
	task, err := svc.CreateTask(ctx, user, TaskInput{
		Text:           "water the plants",
		DueDate:        &due,
		IsRecurring:    true,
		RecurrenceType: model.RecurWeekly,
		RecurrenceDay:  1,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	store.failCreate = true
	if _, err := svc.CompleteTask(ctx, user, task.ID); !errors.Is(err, ErrNextOccurrence) {
		t.Fatalf("CompleteTask err = %v, want %v", err, ErrNextOccurrence)
	}

	reloaded, err := svc.GetTask(ctx, user, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if reloaded.Completed {
		t.Error("predecessor was marked completed despite the failed successor insert")
	}

	tasks, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("have %d tasks after failed rollover, want 1", len(tasks))
	}

	// Once the store recovers the retry goes through whole.
	store.failCreate = false
	if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("retry CompleteTask: %v", err)
	}
	if tasks, _ = svc.List(ctx, user); len(tasks) != 2 {
		t.Errorf("have %d tasks after retry, want 2", len(tasks))
	}
}

func TestUpdateTaskRequiresDueDate(t *testing.T) {
	svc, user, ctx := newTestService(t)
	task, err := svc.CreateTask(ctx, user, TaskInput{Text: "someday thing"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := svc.UpdateTask(ctx, user, task.ID, TaskInput{Text: "renamed"}); !errors.Is(err, ErrDueDateRequired) {
		t.Errorf("UpdateTask err = %v, want %v", err, ErrDueDateRequired)
	}

	due := date(2024, time.July, 1)
	updated, err := svc.UpdateTask(ctx, user, task.ID, TaskInput{Text: "renamed", Notes: "now scheduled", DueDate: &due})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Text != "renamed" || updated.Notes != "now scheduled" {
		t.Errorf("update did not apply: %+v", updated)
	}
	if d, ok := updated.Due(); !ok || d.Format("2006-01-02") != "2024-07-01" {
		t.Errorf("updated due = %v, want 2024-07-01", updated.DueDate)
	}
}

func TestReopenTask(t *testing.T) {
	svc, user, ctx := newTestService(t)
	task, err := svc.CreateTask(ctx, user, TaskInput{Text: "oops"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	reopened, err := svc.ReopenTask(ctx, user, task.ID)
	if err != nil {
		t.Fatalf("ReopenTask: %v", err)
	}
	if reopened.Completed {
		t.Error("task still completed after reopen")
	}
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	svc, user, ctx := newTestService(t)
	task, err := svc.CreateTask(ctx, user, TaskInput{Text: "mine"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	stranger := &model.User{ID: user.ID + 1}
	if _, err := svc.GetTask(ctx, stranger, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("GetTask as stranger err = %v, want record not found", err)
	}

	if err := svc.DeleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := svc.GetTask(ctx, user, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("GetTask after delete err = %v, want record not found", err)
	}
}

func TestClearCompleted(t *testing.T) {
	svc, user, ctx := newTestService(t)

	var keepID string
	for i, text := range []string{"done a", "done b", "still open"} {
		task, err := svc.CreateTask(ctx, user, TaskInput{Text: text})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if i < 2 {
			if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
				t.Fatalf("CompleteTask: %v", err)
			}
		} else {
			keepID = task.ID
		}
	}

	n, err := svc.ClearCompleted(ctx, user)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if n != 2 {
		t.Errorf("ClearCompleted = %d, want 2", n)
	}

	tasks, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != keepID {
		t.Errorf("remaining tasks = %+v, want only the open one", tasks)
	}

	// Nothing left to clear.
	if n, err = svc.ClearCompleted(ctx, user); err != nil || n != 0 {
		t.Errorf("second ClearCompleted = %d, %v, want 0, nil", n, err)
	}
}
