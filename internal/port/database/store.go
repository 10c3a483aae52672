// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/TaskMate/internal/domain/assignment"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// Store is the port interface for database operations.
// Missing rows are reported as domain.ErrNotFound.
type Store interface {
	TaskStore
	DependencyStore
	PersonStore

	// Ping checks connectivity of the underlying storage.
	Ping(ctx context.Context) error
}

// TaskStore persists task records.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	GetTask(ctx context.Context, id int64) (*task.Task, error)
	// CreateTask stores t and returns it with the id assigned by the store.
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	// UpdateTask overwrites the editable fields of an existing task.
	UpdateTask(ctx context.Context, t *task.Task) error
	// DeleteTask removes the task and every dependency edge touching it.
	DeleteTask(ctx context.Context, id int64) error
	UpdateTaskStatus(ctx context.Context, id int64, status task.Status) error
	// SetTaskAssignee sets or, with a nil personID, clears the assignee.
	SetTaskAssignee(ctx context.Context, id int64, personID *int64) error
	// ApplyAssignments sets the assignee of every listed task atomically.
	ApplyAssignments(ctx context.Context, assignments []assignment.Assignment) error
	CountTasksByStatus(ctx context.Context, statuses ...task.Status) (int, error)
}

// DependencyStore persists dependency edges.
type DependencyStore interface {
	ListDependencies(ctx context.Context) ([]dependency.Edge, error)
	// CreateDependency stores the edge. Storing an existing edge is a no-op.
	CreateDependency(ctx context.Context, e dependency.Edge) error
	DeleteDependency(ctx context.Context, e dependency.Edge) error
}

// PersonStore is the minimal person source the scheduler assigns to.
type PersonStore interface {
	ListPeople(ctx context.Context) ([]person.Person, error)
	GetPerson(ctx context.Context, id int64) (*person.Person, error)
	CreatePerson(ctx context.Context, req person.CreateRequest) (*person.Person, error)
	// ListWorkloads returns every person with the number of open tasks assigned to them.
	ListWorkloads(ctx context.Context) ([]person.Workload, error)
}
