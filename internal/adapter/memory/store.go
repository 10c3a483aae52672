// Package memory implements the database store port with in-process maps.
// It backs the "memory" storage driver used for local runs and tests; nothing
// survives a restart.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/assignment"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// Store implements database.Store in memory.
type Store struct {
	mu sync.RWMutex

	tasks  map[int64]*task.Task
	people map[int64]*person.Person
	edges  map[dependency.Edge]struct{}

	nextTaskID   int64
	nextPersonID int64

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tasks:  make(map[int64]*task.Task),
		people: make(map[int64]*person.Person),
		edges:  make(map[dependency.Edge]struct{}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// --- Tasks ---

func (s *Store) ListTasks(_ context.Context) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.tasks))
	for _, id := range slices.Sorted(maps.Keys(s.tasks)) {
		out = append(out, copyTask(s.tasks[id]))
	}
	return out, nil
}

func (s *Store) GetTask(_ context.Context, id int64) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %d: %w", id, domain.ErrNotFound)
	}
	c := copyTask(t)
	return &c, nil
}

func (s *Store) CreateTask(_ context.Context, t *task.Task) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTaskID++
	c := copyTask(t)
	c.ID = s.nextTaskID
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.tasks[c.ID] = &c

	out := copyTask(&c)
	return &out, nil
}

func (s *Store) UpdateTask(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[t.ID]
	if !ok {
		return fmt.Errorf("update task %d: %w", t.ID, domain.ErrNotFound)
	}
	cur.Description = t.Description
	cur.TargetRole = t.TargetRole
	cur.Priority = t.Priority
	cur.Date = t.Date
	cur.Deadline = t.Deadline
	cur.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("delete task %d: %w", id, domain.ErrNotFound)
	}
	delete(s.tasks, id)
	for e := range s.edges {
		if e.From == id || e.To == id {
			delete(s.edges, e)
		}
	}
	return nil
}

func (s *Store) UpdateTaskStatus(_ context.Context, id int64, status task.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("update task status %d: %w", id, domain.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = s.now()
	return nil
}

func (s *Store) SetTaskAssignee(_ context.Context, id int64, personID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("set task assignee %d: %w", id, domain.ErrNotFound)
	}
	if personID != nil {
		if _, ok := s.people[*personID]; !ok {
			return fmt.Errorf("set task assignee %d: person %d: %w", id, *personID, domain.ErrNotFound)
		}
	}
	t.AssignedPersonID = cloneID(personID)
	t.UpdatedAt = s.now()
	return nil
}

// ApplyAssignments checks every pair before touching any task so a bad id
// leaves the store unchanged.
func (s *Store) ApplyAssignments(_ context.Context, assignments []assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range assignments {
		if _, ok := s.tasks[a.TaskID]; !ok {
			return fmt.Errorf("apply assignments: task %d: %w", a.TaskID, domain.ErrNotFound)
		}
		if _, ok := s.people[a.PersonID]; !ok {
			return fmt.Errorf("apply assignments: person %d: %w", a.PersonID, domain.ErrNotFound)
		}
	}
	now := s.now()
	for _, a := range assignments {
		t := s.tasks[a.TaskID]
		t.AssignedPersonID = cloneID(&a.PersonID)
		t.UpdatedAt = now
	}
	return nil
}

func (s *Store) CountTasksByStatus(_ context.Context, statuses ...task.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tasks {
		if len(statuses) == 0 || slices.Contains(statuses, t.Status) {
			n++
		}
	}
	return n, nil
}

// --- Dependencies ---

func (s *Store) ListDependencies(_ context.Context) ([]dependency.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Keys(s.edges))
	slices.SortFunc(out, func(a, b dependency.Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return out, nil
}

func (s *Store) CreateDependency(_ context.Context, e dependency.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []int64{e.From, e.To} {
		if _, ok := s.tasks[id]; !ok {
			return fmt.Errorf("create dependency %d->%d: task %d: %w", e.From, e.To, id, domain.ErrUnknownTask)
		}
	}
	s.edges[e] = struct{}{}
	return nil
}

func (s *Store) DeleteDependency(_ context.Context, e dependency.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[e]; !ok {
		return fmt.Errorf("delete dependency %d->%d: %w", e.From, e.To, domain.ErrNotFound)
	}
	delete(s.edges, e)
	return nil
}

// --- People ---

func (s *Store) ListPeople(_ context.Context) ([]person.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]person.Person, 0, len(s.people))
	for _, id := range slices.Sorted(maps.Keys(s.people)) {
		out = append(out, *s.people[id])
	}
	return out, nil
}

func (s *Store) GetPerson(_ context.Context, id int64) (*person.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("get person %d: %w", id, domain.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (s *Store) CreatePerson(_ context.Context, req person.CreateRequest) (*person.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPersonID++
	p := &person.Person{
		ID:        s.nextPersonID,
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: s.now(),
	}
	s.people[p.ID] = p
	c := *p
	return &c, nil
}

func (s *Store) ListWorkloads(_ context.Context) ([]person.Workload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := make(map[int64]int, len(s.people))
	for _, t := range s.tasks {
		if t.AssignedPersonID != nil && t.Status.Open() {
			open[*t.AssignedPersonID]++
		}
	}
	out := make([]person.Workload, 0, len(s.people))
	for _, id := range slices.Sorted(maps.Keys(s.people)) {
		out = append(out, person.Workload{Person: *s.people[id], OpenTasks: open[id]})
	}
	return out, nil
}

func copyTask(t *task.Task) task.Task {
	c := *t
	c.AssignedPersonID = cloneID(t.AssignedPersonID)
	return c
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
