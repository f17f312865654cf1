package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chomper/internal/repository"
)

func TestDailyAgenda(t *testing.T) {
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "agenda.db"))
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
	taskRepo := repository.NewTaskRepository(db)
	svc := NewTaskService(taskRepo)
	reminders := NewReminderService(taskRepo)

	now := time.Date(2024, time.June, 12, 8, 0, 0, 0, time.UTC)

	msg, ok, err := reminders.DailyAgenda(ctx, *user, now)
	if err != nil {
		t.Fatalf("DailyAgenda on empty list: %v", err)
	}
	if ok {
		t.Errorf("empty list produced an agenda: %q", msg)
	}

	mk := func(text string, days int, completed bool) {
		t.Helper()
		due := dateOnly(now).AddDate(0, 0, days)
		task, err := svc.CreateTask(ctx, user, TaskInput{Text: text, DueDate: &due})
		if err != nil {
			t.Fatalf("CreateTask %q: %v", text, err)
		}
		if completed {
			if _, err := svc.CompleteTask(ctx, user, task.ID); err != nil {
				t.Fatalf("CompleteTask %q: %v", text, err)
			}
		}
	}
	mk("pay rent", -2, false)
	mk("standup notes", 0, false)
	mk("call the dentist", 1, false)
	mk("midweek review", 5, false)
	mk("far away thing", 9, false)
	mk("already handled", 0, true)
	if _, err := svc.CreateTask(ctx, user, TaskInput{Text: "someday idea"}); err != nil {
		t.Fatalf("CreateTask someday: %v", err)
	}

	msg, ok, err = reminders.DailyAgenda(ctx, *user, now)
	if err != nil {
		t.Fatalf("DailyAgenda: %v", err)
	}
	if !ok {
		t.Fatal("agenda expected but ok=false")
	}

	for _, want := range []string{
		"🔥 Today", "➡️ Tomorrow", "📅 Later this week",
		"standup notes", "call the dentist", "midweek review",
		"pay rent", "overdue since Jun 10",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("agenda missing %q:\n%s", want, msg)
		}
	}
	for _, skip := range []string{"far away thing", "already handled", "someday idea"} {
		if strings.Contains(msg, skip) {
			t.Errorf("agenda should not mention %q:\n%s", skip, msg)
		}
	}
}
