package task_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

func mustDate(t *testing.T, s string) task.Date {
	t.Helper()
	d, err := task.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     task.CreateRequest
		wantErr bool
	}{
		{"valid", task.CreateRequest{Description: "Fix pump", TargetRole: "Engineer", Priority: 2}, false},
		{"default priority", task.CreateRequest{Description: "Fix pump", TargetRole: "Engineer"}, false},
		{"missing description", task.CreateRequest{TargetRole: "Engineer"}, true},
		{"blank description", task.CreateRequest{Description: "  ", TargetRole: "Engineer"}, true},
		{"missing role", task.CreateRequest{Description: "Fix pump"}, true},
		{"priority too high", task.CreateRequest{Description: "x", TargetRole: "r", Priority: 6}, true},
		{"negative priority", task.CreateRequest{Description: "x", TargetRole: "r", Priority: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
		})
	}
}

func TestCreateRequestNewDefaults(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	req := task.CreateRequest{Description: " Inspect valves ", TargetRole: "Technician"}

	got := req.New(now)

	if got.Status != task.StatusPending {
		t.Errorf("status = %q, want Pending", got.Status)
	}
	if got.Priority != task.PriorityDefault {
		t.Errorf("priority = %d, want %d", got.Priority, task.PriorityDefault)
	}
	if got.Description != "Inspect valves" {
		t.Errorf("description = %q, want trimmed", got.Description)
	}
	if got.Date.String() != "2024-03-10" {
		t.Errorf("date = %s, want 2024-03-10", got.Date)
	}
	if !got.Deadline.Equal(got.Date.Time) {
		t.Errorf("deadline %s should default to date %s", got.Deadline, got.Date)
	}
	if got.Assigned() {
		t.Error("new task must be unassigned")
	}
}

func TestCreateRequestNewKeepsDeadline(t *testing.T) {
	date := mustDate(t, "2024-03-01")
	deadline := mustDate(t, "2024-03-20")
	req := task.CreateRequest{Description: "x", TargetRole: "r", Priority: 1, Date: &date, Deadline: &deadline}

	got := req.New(time.Now())

	if got.Deadline.String() != "2024-03-20" {
		t.Errorf("deadline = %s, want 2024-03-20", got.Deadline)
	}
	if got.Priority != 1 {
		t.Errorf("priority = %d, want 1", got.Priority)
	}
}

func TestUpdateRequestApply(t *testing.T) {
	tk := task.Task{ID: 1, Description: "old", TargetRole: "A", Priority: 3}
	desc := "new"
	prio := 1
	req := task.UpdateRequest{Description: &desc, Priority: &prio}

	if err := req.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	req.Apply(&tk, time.Now())

	if tk.Description != "new" || tk.Priority != 1 || tk.TargetRole != "A" {
		t.Errorf("unexpected task after apply: %+v", tk)
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	empty := ""
	bad := 9
	if err := (&task.UpdateRequest{Description: &empty}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty description: got %v", err)
	}
	if err := (&task.UpdateRequest{Priority: &bad}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("priority 9: got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Pending", "In Progress", "Completed"} {
		if _, err := task.ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "pending", "Done"} {
		if _, err := task.ParseStatus(s); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("ParseStatus(%q) = %v, want ErrInvalidState", s, err)
		}
	}
}

func TestStatusOpen(t *testing.T) {
	if !task.StatusPending.Open() || !task.StatusInProgress.Open() {
		t.Error("pending and in progress tasks are open")
	}
	if task.StatusCompleted.Open() {
		t.Error("completed task is not open")
	}
}

func TestDateJSON(t *testing.T) {
	var d task.Date
	if err := json.Unmarshal([]byte(`"2024-05-06"`), &d); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}
	if d.String() != "2024-05-06" {
		t.Errorf("got %s", d)
	}

	if err := json.Unmarshal([]byte(`"2024-05-06T22:15:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal rfc3339: %v", err)
	}
	if d.String() != "2024-05-06" {
		t.Errorf("rfc3339 should truncate to day, got %s", d)
	}

	if err := json.Unmarshal([]byte(`"06/05/2024"`), &d); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	out, err := json.Marshal(task.Task{Date: mustDate(t, "2024-01-02")})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(out, &decoded)
	if decoded["date"] != "2024-01-02" {
		t.Errorf("date encoded as %v", decoded["date"])
	}
	if decoded["deadline"] != nil {
		t.Errorf("zero deadline should encode as null, got %v", decoded["deadline"])
	}
}

func TestDaysUntil(t *testing.T) {
	today := mustDate(t, "2024-03-10")
	tests := []struct {
		deadline string
		want     int
	}{
		{"2024-03-10", 0},
		{"2024-03-15", 5},
		{"2024-03-08", -2},
		{"2024-04-10", 31},
		{"2424-03-10", 146097},
		{"1624-03-10", -146097},
	}
	for _, tt := range tests {
		if got := today.DaysUntil(mustDate(t, tt.deadline)); got != tt.want {
			t.Errorf("DaysUntil(%s) = %d, want %d", tt.deadline, got, tt.want)
		}
	}
}

func TestSort(t *testing.T) {
	d1 := mustDate(t, "2024-01-01")
	d2 := mustDate(t, "2024-02-01")
	base := []task.Task{
		{ID: 3, Priority: 2, Deadline: d1},
		{ID: 1, Priority: 3, Deadline: d1},
		{ID: 2, Priority: 2, Deadline: d2},
		{ID: 4, Priority: 1, Deadline: d2},
	}

	tests := []struct {
		key  task.SortKey
		want []int64
	}{
		{task.SortByID, []int64{1, 2, 3, 4}},
		{task.SortByPriority, []int64{4, 2, 3, 1}},
		{task.SortByDeadline, []int64{1, 3, 2, 4}},
		{task.SortByBoth, []int64{4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			tasks := append([]task.Task(nil), base...)
			task.Sort(tasks, tt.key)
			for i, id := range tt.want {
				if tasks[i].ID != id {
					t.Fatalf("position %d: got id %d, want %d", i, tasks[i].ID, id)
				}
			}
		})
	}
}

func TestParseSortKey(t *testing.T) {
	if task.ParseSortKey("both") != task.SortByBoth {
		t.Error("expected both")
	}
	if task.ParseSortKey("whatever") != task.SortByID {
		t.Error("unknown key should fall back to id")
	}
}
