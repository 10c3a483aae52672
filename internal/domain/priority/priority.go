// Package priority ranks tasks by urgency: ascending priority value, then
// fewest days left until the deadline, then ascending id.
package priority

import (
	"cmp"
	"container/heap"
	"fmt"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// Entry is a task together with its computed urgency.
type Entry struct {
	task.Task
	DaysLeft int `json:"days_left"`
}

// NewEntry computes the urgency of t as of today.
func NewEntry(t *task.Task, today task.Date) Entry {
	return Entry{Task: *t, DaysLeft: DaysLeft(t, today)}
}

// DaysLeft is the whole number of days between today and the task deadline.
// Overdue tasks yield negative values.
func DaysLeft(t *task.Task, today task.Date) int {
	return today.DaysUntil(t.Deadline)
}

// Compare orders two entries by urgency. It returns a negative number when a
// is more urgent than b.
func Compare(a, b *Entry) int {
	return cmp.Or(
		cmp.Compare(a.Priority, b.Priority),
		cmp.Compare(a.DaysLeft, b.DaysLeft),
		cmp.Compare(a.ID, b.ID),
	)
}

// Less reports whether a is more urgent than b.
func Less(a, b *Entry) bool {
	return Compare(a, b) < 0
}

// Queue is a binary min-heap of entries; the most urgent entry is on top.
type Queue struct {
	h entryHeap
}

// NewQueue builds a queue from the given tasks in O(n).
func NewQueue(tasks []task.Task, today task.Date) *Queue {
	q := &Queue{h: make(entryHeap, 0, len(tasks))}
	for i := range tasks {
		q.h = append(q.h, NewEntry(&tasks[i], today))
	}
	heap.Init(&q.h)
	return q
}

// Len returns the number of queued entries.
func (q *Queue) Len() int { return q.h.Len() }

// Push adds an entry.
func (q *Queue) Push(e Entry) { heap.Push(&q.h, e) }

// Pop removes and returns the most urgent entry.
func (q *Queue) Pop() (Entry, bool) {
	if q.h.Len() == 0 {
		return Entry{}, false
	}
	return heap.Pop(&q.h).(Entry), true
}

// Peek returns the most urgent entry without removing it.
func (q *Queue) Peek() (Entry, bool) {
	if q.h.Len() == 0 {
		return Entry{}, false
	}
	return q.h[0], true
}

// Pending keeps the tasks that are still waiting to be started.
func Pending(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for i := range tasks {
		if tasks[i].Status == task.StatusPending {
			out = append(out, tasks[i])
		}
	}
	return out
}

// Rank returns all pending tasks, most urgent first.
func Rank(tasks []task.Task, today task.Date) []Entry {
	q := NewQueue(Pending(tasks), today)
	out := make([]Entry, 0, q.Len())
	for {
		e, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

// TopN returns at most n pending tasks, most urgent first.
func TopN(tasks []task.Task, n int, today task.Date) ([]Entry, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must be >= 0", domain.ErrValidation)
	}
	q := NewQueue(Pending(tasks), today)
	out := make([]Entry, 0, min(n, q.Len()))
	for len(out) < n {
		e, ok := q.Pop()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

// Next returns the most urgent pending task that nobody has taken yet.
func Next(tasks []task.Task, today task.Date) (Entry, bool) {
	var best *Entry
	for i := range tasks {
		t := &tasks[i]
		if t.Status != task.StatusPending || t.Assigned() {
			continue
		}
		e := NewEntry(t, today)
		if best == nil || Less(&e, best) {
			best = &e
		}
	}
	if best == nil {
		return Entry{}, false
	}
	return *best, true
}

type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return Less(&h[i], &h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
