package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	tmotel "github.com/Strob0t/TaskMate/internal/adapter/otel"
	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/task"
	"github.com/Strob0t/TaskMate/internal/port/database"
	"github.com/Strob0t/TaskMate/internal/port/messagequeue"
)

// GraphNode is a task as it appears in graph views.
type GraphNode struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Status      task.Status `json:"status"`
}

// GraphSnapshot is a stable view of the dependency graph: every live task
// ordered by id and every edge ordered by (from, to).
type GraphSnapshot struct {
	Nodes []GraphNode       `json:"nodes"`
	Edges []dependency.Edge `json:"edges"`
}

// CriticalPathView is the longest dependency chain.
type CriticalPathView struct {
	TaskIDs []int64     `json:"task_ids"`
	Length  int         `json:"length"`
	Tasks   []GraphNode `json:"tasks"`
}

// ImpactView lists the tasks transitively blocked by a task.
type ImpactView struct {
	TaskID   int64   `json:"task_id"`
	Affected []int64 `json:"affected_task_ids"`
	Count    int     `json:"count"`
}

// TaskDependencies holds the direct neighbours of a task in the graph.
type TaskDependencies struct {
	TaskID        int64   `json:"task_id"`
	Prerequisites []int64 `json:"prerequisites"`
	Dependents    []int64 `json:"dependents"`
}

// DependencyService manages prerequisite edges and the graph read models.
type DependencyService struct {
	store   database.Store
	sched   *Scheduler
	events  *Events
	views   *ReadModels
	metrics *tmotel.Metrics
}

// NewDependencyService creates a new DependencyService. events, views and
// metrics may be nil.
func NewDependencyService(store database.Store, sched *Scheduler, events *Events, views *ReadModels, metrics *tmotel.Metrics) *DependencyService {
	return &DependencyService{store: store, sched: sched, events: events, views: views, metrics: metrics}
}

// Add records that dependent cannot start before prerequisite. The graph
// and the store are left unchanged when the edge is rejected. Adding an
// existing edge succeeds without side effects.
func (s *DependencyService) Add(ctx context.Context, prerequisite, dependent int64) (dependency.Edge, error) {
	ctx, span := tmotel.StartDependencySpan(ctx, "add", prerequisite, dependent)
	defer span.End()

	edge := dependency.Edge{From: prerequisite, To: dependent}
	var added bool
	err := s.sched.write(func(g *dependency.Graph) error {
		var err error
		added, err = g.AddEdge(prerequisite, dependent)
		if err != nil || !added {
			return err
		}
		if err := s.store.CreateDependency(ctx, edge); err != nil {
			g.RemoveEdge(prerequisite, dependent)
			return err
		}
		return nil
	})
	if err != nil {
		s.rejected(ctx, err)
		span.RecordError(err)
		return edge, err
	}

	if added {
		if s.metrics != nil {
			s.metrics.DependenciesAdded.Add(ctx, 1)
		}
		s.events.Publish(ctx, messagequeue.SubjectDependencyAdded, dependencyEvent(edge))
	}
	return edge, nil
}

// Remove deletes the edge. Removing a missing edge is a no-op.
func (s *DependencyService) Remove(ctx context.Context, prerequisite, dependent int64) error {
	ctx, span := tmotel.StartDependencySpan(ctx, "remove", prerequisite, dependent)
	defer span.End()

	edge := dependency.Edge{From: prerequisite, To: dependent}
	var removed bool
	err := s.sched.write(func(g *dependency.Graph) error {
		removed = g.RemoveEdge(prerequisite, dependent)
		if !removed {
			return nil
		}
		err := s.store.DeleteDependency(ctx, edge)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			// Re-adding cannot fail: the edge was part of an acyclic graph.
			_, _ = g.AddEdge(prerequisite, dependent)
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	if removed {
		s.events.Publish(ctx, messagequeue.SubjectDependencyRemoved, dependencyEvent(edge))
	}
	return nil
}

// Graph returns a snapshot of every live task and every edge.
func (s *DependencyService) Graph(ctx context.Context) (GraphSnapshot, error) {
	var snap GraphSnapshot
	err := s.sched.read(func(g *dependency.Graph, version uint64) error {
		var err error
		snap, err = loadView(ctx, s.views, "graph", s.sched.stateKey(version), func(ctx context.Context) (GraphSnapshot, error) {
			nodes, err := s.nodes(ctx)
			if err != nil {
				return GraphSnapshot{}, err
			}
			out := GraphSnapshot{Nodes: make([]GraphNode, 0, len(nodes)), Edges: g.Edges()}
			for _, id := range g.Nodes() {
				if n, ok := nodes[id]; ok {
					out.Nodes = append(out.Nodes, n)
				}
			}
			return out, nil
		})
		return err
	})
	return snap, err
}

// CriticalPath returns the longest chain of dependent tasks. Ties go to the
// lexicographically smallest id sequence; the path is empty without edges.
func (s *DependencyService) CriticalPath(ctx context.Context) (CriticalPathView, error) {
	var view CriticalPathView
	err := s.sched.read(func(g *dependency.Graph, version uint64) error {
		var err error
		view, err = loadView(ctx, s.views, "critical-path", s.sched.stateKey(version), func(ctx context.Context) (CriticalPathView, error) {
			path := g.CriticalPath()
			out := CriticalPathView{TaskIDs: path, Length: len(path), Tasks: make([]GraphNode, 0, len(path))}
			if len(path) == 0 {
				return out, nil
			}
			nodes, err := s.nodes(ctx)
			if err != nil {
				return CriticalPathView{}, err
			}
			for _, id := range path {
				out.Tasks = append(out.Tasks, nodes[id])
			}
			return out, nil
		})
		return err
	})
	return view, err
}

// Order returns every task in a dependency-respecting order, smallest
// ready id first.
func (s *DependencyService) Order(ctx context.Context) ([]int64, error) {
	var order []int64
	err := s.sched.read(func(g *dependency.Graph, version uint64) error {
		var err error
		order, err = loadView(ctx, s.views, "order", s.sched.stateKey(version), func(context.Context) ([]int64, error) {
			return g.TopologicalOrder(), nil
		})
		return err
	})
	return order, err
}

// Impact returns every task transitively blocked by id.
func (s *DependencyService) Impact(ctx context.Context, id int64) (ImpactView, error) {
	var view ImpactView
	err := s.sched.read(func(g *dependency.Graph, version uint64) error {
		var err error
		view, err = loadView(ctx, s.views, "impact-"+strconv.FormatInt(id, 10), s.sched.stateKey(version), func(context.Context) (ImpactView, error) {
			affected, err := g.Impact(id)
			if err != nil {
				return ImpactView{}, fmt.Errorf("impact of task %d: %w", id, err)
			}
			return ImpactView{TaskID: id, Affected: affected, Count: len(affected)}, nil
		})
		return err
	})
	return view, err
}

// ForTask returns the direct prerequisites and dependents of a task.
func (s *DependencyService) ForTask(_ context.Context, id int64) (TaskDependencies, error) {
	var deps TaskDependencies
	err := s.sched.read(func(g *dependency.Graph, _ uint64) error {
		if !g.HasNode(id) {
			return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
		}
		deps = TaskDependencies{TaskID: id, Prerequisites: g.Prerequisites(id), Dependents: g.Dependents(id)}
		return nil
	})
	return deps, err
}

func (s *DependencyService) nodes(ctx context.Context) (map[int64]GraphNode, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make(map[int64]GraphNode, len(tasks))
	for i := range tasks {
		nodes[tasks[i].ID] = GraphNode{ID: tasks[i].ID, Description: tasks[i].Description, Status: tasks[i].Status}
	}
	return nodes, nil
}

func (s *DependencyService) rejected(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, domain.ErrCycleDetected):
		reason = "cycle"
	case errors.Is(err, domain.ErrSelfDependency):
		reason = "self"
	case errors.Is(err, domain.ErrUnknownTask):
		reason = "unknown_task"
	}
	s.metrics.DependenciesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
