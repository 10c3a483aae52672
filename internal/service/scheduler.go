package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/port/database"
)

// Scheduler is the shared guard of the scheduling core. It owns the live
// dependency graph, a write-through mirror of the persisted edge set, and
// serializes every mutation against the read-side queries.
//
// A single TaskMate process is assumed to be the writer for its database.
type Scheduler struct {
	mu      sync.RWMutex
	graph   *dependency.Graph
	version atomic.Uint64
	// epoch identifies this load of the graph. Versions restart with every
	// process, so cached views are keyed by epoch and version together.
	epoch string
}

// NewScheduler returns a scheduler with an empty graph. Call Load before
// serving traffic against a non-empty store.
func NewScheduler() *Scheduler {
	return &Scheduler{graph: dependency.New(), epoch: uuid.NewString()}
}

// Load rebuilds the graph from the store's tasks and edges.
func (s *Scheduler) Load(ctx context.Context, store database.Store) error {
	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	edges, err := store.ListDependencies(ctx)
	if err != nil {
		return fmt.Errorf("load dependencies: %w", err)
	}

	ids := make([]int64, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	g, err := dependency.Build(ids, edges)
	if err != nil {
		return fmt.Errorf("build dependency graph: %w", err)
	}

	s.mu.Lock()
	s.graph = g
	s.epoch = uuid.NewString()
	s.version.Add(1)
	s.mu.Unlock()

	slog.Info("scheduler loaded", "tasks", len(ids), "dependencies", len(edges))
	return nil
}

// Version changes on every mutation. Read models are cached per version.
func (s *Scheduler) Version() uint64 {
	return s.version.Load()
}

// stateKey names the graph state at version for read-model caching. It must
// be called from within read.
func (s *Scheduler) stateKey(version uint64) string {
	return fmt.Sprintf("%s.v%d", s.epoch, version)
}

// write runs fn under the write lock and bumps the version when fn succeeds.
func (s *Scheduler) write(fn func(g *dependency.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.graph); err != nil {
		return err
	}
	s.version.Add(1)
	return nil
}

// read runs fn under the read lock with the version that was current while
// the lock was held.
func (s *Scheduler) read(fn func(g *dependency.Graph, version uint64) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.graph, s.version.Load())
}
