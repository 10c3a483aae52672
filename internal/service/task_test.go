package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/task"
	"github.com/Strob0t/TaskMate/internal/port/messagequeue"
)

func TestTaskServiceCreateDefaults(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.tasks.Create(context.Background(), task.CreateRequest{Description: "Write docs", TargetRole: "Dev"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != task.StatusPending {
		t.Errorf("status = %q, want Pending", got.Status)
	}
	if got.Priority != task.PriorityDefault {
		t.Errorf("priority = %d, want %d", got.Priority, task.PriorityDefault)
	}
	if got.Date.String() != "2024-06-01" || got.Deadline != got.Date {
		t.Errorf("date/deadline = %s/%s", got.Date, got.Deadline)
	}
	if got.Assigned() {
		t.Error("new task should be unassigned")
	}
	if env.queue.count(messagequeue.SubjectTaskCreated) != 1 {
		t.Errorf("published = %v", env.queue.subjects())
	}
	_ = env.sched.read(func(g *dependency.Graph, _ uint64) error {
		if !g.HasNode(got.ID) {
			t.Error("task not registered with the graph")
		}
		return nil
	})
}

func TestTaskServiceCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []task.CreateRequest{
		{TargetRole: "Dev"},
		{Description: "x"},
		{Description: "x", TargetRole: "Dev", Priority: 6},
	}
	for _, req := range tests {
		if _, err := env.tasks.Create(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Create(%+v): expected ErrValidation, got %v", req, err)
		}
	}
	if len(env.queue.subjects()) != 0 {
		t.Error("rejected create must not publish")
	}
}

func TestTaskServiceUpdate(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t, "Dev", 3, "")

	desc := "Renamed"
	prio := 1
	got, err := env.tasks.Update(context.Background(), created.ID, task.UpdateRequest{Description: &desc, Priority: &prio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Description != "Renamed" || got.Priority != 1 || got.TargetRole != "Dev" {
		t.Errorf("update result = %+v", got)
	}

	if _, err := env.tasks.Update(context.Background(), 999, task.UpdateRequest{Description: &desc}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskServiceSetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createTask(t, "Dev", 3, "")

	got, err := env.tasks.SetStatus(ctx, created.ID, "In Progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != task.StatusInProgress {
		t.Errorf("status = %q", got.Status)
	}

	if _, err := env.tasks.SetStatus(ctx, created.ID, "Done"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if _, err := env.tasks.SetStatus(ctx, 999, "Completed"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if env.queue.count(messagequeue.SubjectTaskStatus) != 1 {
		t.Errorf("published = %v", env.queue.subjects())
	}
}

func TestTaskServiceDeleteCascadesEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createTask(t, "Dev", 3, "")
	b := env.createTask(t, "Dev", 3, "")
	c := env.createTask(t, "Dev", 3, "")
	env.addEdge(t, a.ID, b.ID)
	env.addEdge(t, b.ID, c.ID)

	if err := env.tasks.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	snap, err := env.deps.Graph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Edges) != 0 {
		t.Errorf("edges survived delete: %v", snap.Edges)
	}
	if len(snap.Nodes) != 2 {
		t.Errorf("nodes = %v", snap.Nodes)
	}
	stored, _ := env.store.ListDependencies(ctx)
	if len(stored) != 0 {
		t.Errorf("stored edges survived delete: %v", stored)
	}
	if n := env.queue.count(messagequeue.SubjectDependencyRemoved); n != 2 {
		t.Errorf("dependencies.removed published %d times, want 2", n)
	}
	if err := env.tasks.Delete(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskServiceListSorted(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "Dev", 4, "2024-06-02")
	env.createTask(t, "Dev", 1, "2024-06-20")
	env.createTask(t, "Dev", 2, "2024-06-01")

	got, err := env.tasks.List(context.Background(), task.SortByPriority)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != 2 || got[1].ID != 3 || got[2].ID != 1 {
		t.Errorf("priority order = %d,%d,%d", got[0].ID, got[1].ID, got[2].ID)
	}

	got, _ = env.tasks.List(context.Background(), task.SortByDeadline)
	if got[0].ID != 3 || got[2].ID != 2 {
		t.Errorf("deadline order = %d,%d,%d", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestTaskServiceActiveCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createTask(t, "Dev", 3, "")
	b := env.createTask(t, "Dev", 3, "")
	env.createTask(t, "Dev", 3, "")
	_, _ = env.tasks.SetStatus(ctx, a.ID, string(task.StatusInProgress))
	_, _ = env.tasks.SetStatus(ctx, b.ID, string(task.StatusCompleted))

	n, err := env.tasks.ActiveCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("active = %d, want 2", n)
	}
}

func TestTaskServiceAssignAndUnassign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tk := env.createTask(t, "QA", 3, "")
	p := env.createPerson(t, "Ada", "Dev")

	// Assign skips the role check.
	got, err := env.tasks.Assign(ctx, tk.ID, p.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.AssignedPersonID == nil || *got.AssignedPersonID != p.ID {
		t.Fatalf("assignee = %v", got.AssignedPersonID)
	}

	got, err = env.tasks.Unassign(ctx, tk.ID)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if got.Assigned() {
		t.Error("assignee not cleared")
	}
	if n := env.queue.count(messagequeue.SubjectTaskAssigned); n != 2 {
		t.Errorf("tasks.assigned published %d times, want 2", n)
	}
}

func TestTaskServiceStatusRequestSubscriber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tk := env.createTask(t, "Dev", 3, "")

	if _, err := env.tasks.SubscribeStatusRequests(ctx, env.queue); err != nil {
		t.Fatal(err)
	}
	h := env.queue.handlers[messagequeue.SubjectTaskStatusRequest]
	if h == nil {
		t.Fatal("no handler registered")
	}

	data, _ := json.Marshal(messagequeue.TaskStatusPayload{TaskID: tk.ID, Status: "Completed"})
	if err := h(ctx, messagequeue.SubjectTaskStatusRequest, data); err != nil {
		t.Fatalf("handler: %v", err)
	}
	got, _ := env.tasks.Get(ctx, tk.ID)
	if got.Status != task.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}

	bad, _ := json.Marshal(messagequeue.TaskStatusPayload{TaskID: tk.ID, Status: "Nope"})
	if err := h(ctx, messagequeue.SubjectTaskStatusRequest, bad); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}
