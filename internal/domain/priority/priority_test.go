package priority_test

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/priority"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

func date(t *testing.T, s string) task.Date {
	t.Helper()
	d, err := task.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func ids(entries []priority.Entry) []int64 {
	out := make([]int64, len(entries))
	for i := range entries {
		out[i] = entries[i].ID
	}
	return out
}

func TestTopN_Ordering(t *testing.T) {
	today := date(t, "2024-06-01")
	tasks := []task.Task{
		{ID: 1, Priority: 3, Deadline: date(t, "2024-06-02"), Status: task.StatusPending},
		{ID: 2, Priority: 1, Deadline: date(t, "2024-06-10"), Status: task.StatusPending},
		{ID: 3, Priority: 1, Deadline: date(t, "2024-06-05"), Status: task.StatusPending},
		{ID: 4, Priority: 1, Deadline: date(t, "2024-06-05"), Status: task.StatusPending},
		{ID: 5, Priority: 1, Deadline: date(t, "2024-05-30"), Status: task.StatusCompleted},
		{ID: 6, Priority: 2, Deadline: date(t, "2024-05-28"), Status: task.StatusPending},
		{ID: 7, Priority: 5, Deadline: date(t, "2024-06-01"), Status: task.StatusInProgress},
	}

	got, err := priority.TopN(tasks, 5, today)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{3, 4, 2, 6, 1}
	if !slices.Equal(ids(got), want) {
		t.Errorf("TopN = %v, want %v", ids(got), want)
	}
	if got[3].DaysLeft != -4 {
		t.Errorf("overdue task days_left = %d, want -4", got[3].DaysLeft)
	}
}

func TestTopN_FewerThanN(t *testing.T) {
	today := date(t, "2024-06-01")
	tasks := []task.Task{
		{ID: 1, Priority: 2, Deadline: today, Status: task.StatusPending},
		{ID: 2, Priority: 1, Deadline: today, Status: task.StatusCompleted},
	}
	got, err := priority.TopN(tasks, 5, today)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(got), []int64{1}) {
		t.Errorf("TopN = %v, want [1]", ids(got))
	}
}

func TestTopN_Zero(t *testing.T) {
	got, err := priority.TopN([]task.Task{{ID: 1, Status: task.StatusPending}}, 0, task.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("TopN(0) = %v, want empty", ids(got))
	}
}

func TestTopN_Negative(t *testing.T) {
	if _, err := priority.TopN(nil, -1, task.Date{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// The heap order must agree with a full sort for any input.
func TestRank_MatchesSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	today := date(t, "2024-01-15")
	tasks := make([]task.Task, 200)
	for i := range tasks {
		tasks[i] = task.Task{
			ID:       int64(i + 1),
			Priority: 1 + rng.IntN(5),
			Deadline: task.DateOf(today.AddDate(0, 0, rng.IntN(40)-20)),
			Status:   task.StatusPending,
		}
	}

	ranked := priority.Rank(tasks, today)

	sorted := make([]priority.Entry, len(tasks))
	for i := range tasks {
		sorted[i] = priority.NewEntry(&tasks[i], today)
	}
	slices.SortFunc(sorted, func(a, b priority.Entry) int { return priority.Compare(&a, &b) })

	if !slices.Equal(ids(ranked), ids(sorted)) {
		t.Fatal("heap ranking disagrees with sorted order")
	}
	for i := 1; i < len(ranked); i++ {
		if priority.Less(&ranked[i], &ranked[i-1]) {
			t.Fatalf("entry %d ranked after less urgent entry %d", ranked[i].ID, ranked[i-1].ID)
		}
	}
}

func TestQueue_PushPop(t *testing.T) {
	today := date(t, "2024-01-01")
	q := priority.NewQueue(nil, today)
	if _, ok := q.Pop(); ok {
		t.Fatal("empty queue should not pop")
	}
	q.Push(priority.Entry{Task: task.Task{ID: 2, Priority: 2}})
	q.Push(priority.Entry{Task: task.Task{ID: 1, Priority: 4}})
	q.Push(priority.Entry{Task: task.Task{ID: 3, Priority: 1}})

	top, _ := q.Peek()
	if top.ID != 3 {
		t.Errorf("Peek = %d, want 3", top.ID)
	}
	var order []int64
	for q.Len() > 0 {
		e, _ := q.Pop()
		order = append(order, e.ID)
	}
	if !slices.Equal(order, []int64{3, 2, 1}) {
		t.Errorf("pop order = %v", order)
	}
}

func TestNext(t *testing.T) {
	today := date(t, "2024-01-01")
	person := int64(9)
	tasks := []task.Task{
		{ID: 1, Priority: 1, Deadline: today, Status: task.StatusPending, AssignedPersonID: &person},
		{ID: 2, Priority: 2, Deadline: today, Status: task.StatusPending},
		{ID: 3, Priority: 1, Deadline: today, Status: task.StatusInProgress},
	}
	got, ok := priority.Next(tasks, today)
	if !ok || got.ID != 2 {
		t.Errorf("Next = %v (%v), want task 2", got.ID, ok)
	}

	if _, ok := priority.Next(tasks[:1], today); ok {
		t.Error("assigned task should not be offered as next")
	}
}

func TestTopN_FarFutureDeadlinesKeepOrder(t *testing.T) {
	today := date(t, "2024-06-01")
	tasks := []task.Task{
		{ID: 1, Priority: 3, Status: task.StatusPending, Deadline: date(t, "2600-01-01")},
		{ID: 2, Priority: 3, Status: task.StatusPending, Deadline: date(t, "2500-01-01")},
	}
	got, err := priority.TopN(tasks, 2, today)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(got), []int64{2, 1}) {
		t.Errorf("order = %v, want [2 1]", ids(got))
	}
	if got[0].DaysLeft >= got[1].DaysLeft {
		t.Errorf("days_left = %d, %d", got[0].DaysLeft, got[1].DaysLeft)
	}
}
