package bot

import (
	"strings"
	"testing"
	"time"

	"chomper/internal/model"
)

var renderNow = time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)

func duePtr(days int) *time.Time {
	d := time.Date(2024, time.June, 12+days, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestFormatTaskLine(t *testing.T) {
	cases := []struct {
		name    string
		task    model.Task
		want    []string
		exclude []string
	}{
		{
			name:    "due today stays bare",
			task:    model.Task{Text: "standup", DueDate: duePtr(0)},
			want:    []string{"🟢 standup"},
			exclude: []string{"Jun 12"},
		},
		{
			name: "future date shown",
			task: model.Task{Text: "review", DueDate: duePtr(3)},
			want: []string{"· Jun 15"},
		},
		{
			name: "overdue gets a warning",
			task: model.Task{Text: "rent", DueDate: duePtr(-2)},
			want: []string{"⚠️", "was due Jun 10"},
		},
		{
			name: "recurring descriptor",
			task: model.Task{Text: "plants", DueDate: duePtr(1), IsRecurring: true, RecurrenceType: model.RecurWeekly, RecurrenceDay: 1},
			want: []string{"♻️", "(weekly, Monday)"},
		},
		{
			name: "notes on their own line",
			task: model.Task{Text: "call", Notes: "ask about refill"},
			want: []string{"\n   📝 ask about refill"},
		},
		{
			name: "html in titles is escaped",
			task: model.Task{Text: "review <b>PR</b>"},
			want: []string{"review &lt;b&gt;PR&lt;/b&gt;"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := formatTaskLine(tc.task, renderNow)
			for _, want := range tc.want {
				if !strings.Contains(got, want) {
					t.Errorf("line %q missing %q", got, want)
				}
			}
			for _, skip := range tc.exclude {
				if strings.Contains(got, skip) {
					t.Errorf("line %q must not contain %q", got, skip)
				}
			}
		})
	}
}

func TestDescribeRecurrence(t *testing.T) {
	cases := []struct {
		task model.Task
		want string
	}{
		{model.Task{RecurrenceType: model.RecurDaily}, "daily"},
		{model.Task{RecurrenceType: model.RecurWeekly, RecurrenceDay: 5}, "weekly, Friday"},
		{model.Task{RecurrenceType: model.RecurMonthly, RecurrenceDay: 15}, "monthly, day 15"},
		{model.Task{}, ""},
	}
	for _, tc := range cases {
		if got := describeRecurrence(tc.task); got != tc.want {
			t.Errorf("describeRecurrence(%q, %d) = %q, want %q", tc.task.RecurrenceType, tc.task.RecurrenceDay, got, tc.want)
		}
	}
}

func TestParseDueInput(t *testing.T) {
	today := time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)

	due, someday, err := parseDueInput("today", renderNow)
	if err != nil || someday || !due.Equal(today) {
		t.Errorf("today = %v %v %v", due, someday, err)
	}
	due, someday, err = parseDueInput(btnTomorrow, renderNow)
	if err != nil || someday || !due.Equal(today.AddDate(0, 0, 1)) {
		t.Errorf("tomorrow = %v %v %v", due, someday, err)
	}
	if _, someday, err = parseDueInput("someday", renderNow); err != nil || !someday {
		t.Errorf("someday = %v %v", someday, err)
	}
	due, someday, err = parseDueInput(" 2024-07-01 ", renderNow)
	if err != nil || someday || due.Format("2006-01-02") != "2024-07-01" {
		t.Errorf("iso date = %v %v %v", due, someday, err)
	}
	if _, _, err = parseDueInput("next thursday", renderNow); err == nil {
		t.Error("freeform text must be rejected")
	}
}

func TestCancelDoesNotSwallowNo(t *testing.T) {
	if isCancelInput("no") || isCancelInput("n") {
		t.Error("a plain no is an answer, not an abort")
	}
	if !isCancelInput(btnCancel) || !isCancelInput("Cancel") {
		t.Error("the cancel button must abort")
	}
	if !isDeclineInput("No") || !isDeclineInput("n") {
		t.Error("decline should accept no/n")
	}
	if !isConfirmInput("yes") || !isConfirmInput(btnConfirm) {
		t.Error("confirm should accept yes and the button")
	}
}

func TestShortTitle(t *testing.T) {
	if got := shortTitle("short", 18); got != "short" {
		t.Errorf("shortTitle = %q", got)
	}
	got := shortTitle("a very long task title that keeps going", 18)
	if runes := []rune(got); len(runes) != 18 || !strings.HasSuffix(got, "…") {
		t.Errorf("shortTitle = %q (len %d)", got, len([]rune(got)))
	}
	if got := shortTitle("задача с юникодом внутри строки", 10); len([]rune(got)) != 10 {
		t.Errorf("unicode shortTitle = %q", got)
	}
}
