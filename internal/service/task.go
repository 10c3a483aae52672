package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	tmotel "github.com/Strob0t/TaskMate/internal/adapter/otel"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/task"
	"github.com/Strob0t/TaskMate/internal/port/database"
	"github.com/Strob0t/TaskMate/internal/port/messagequeue"
)

// TaskService handles task CRUD, status changes and manual assignee edits.
type TaskService struct {
	store   database.Store
	sched   *Scheduler
	events  *Events
	metrics *tmotel.Metrics
	now     func() time.Time
}

// NewTaskService creates a new TaskService. events and metrics may be nil.
func NewTaskService(store database.Store, sched *Scheduler, events *Events, metrics *tmotel.Metrics) *TaskService {
	return &TaskService{
		store:   store,
		sched:   sched,
		events:  events,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns all tasks ordered by key.
func (s *TaskService) List(ctx context.Context, key task.SortKey) ([]task.Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	task.Sort(tasks, key)
	return tasks, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id int64) (*task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// ActiveCount returns the number of tasks that are pending or in progress.
func (s *TaskService) ActiveCount(ctx context.Context) (int, error) {
	return s.store.CountTasksByStatus(ctx, task.StatusPending, task.StatusInProgress)
}

// Create validates req, stores a new pending task and registers it with
// the dependency graph.
func (s *TaskService) Create(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *task.Task
	err := s.sched.write(func(g *dependency.Graph) error {
		t := req.New(s.now())
		var err error
		created, err = s.store.CreateTask(ctx, &t)
		if err != nil {
			return err
		}
		g.AddNode(created.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TasksCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("target_role", created.TargetRole)))
	}
	s.events.Publish(ctx, messagequeue.SubjectTaskCreated, taskEvent(created))
	return created, nil
}

// Update merges the non-nil fields of req into the task.
func (s *TaskService) Update(ctx context.Context, id int64, req task.UpdateRequest) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *task.Task
	err := s.sched.write(func(_ *dependency.Graph) error {
		t, err := s.store.GetTask(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(t, s.now())
		if err := s.store.UpdateTask(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, messagequeue.SubjectTaskUpdated, taskEvent(updated))
	return updated, nil
}

// Delete removes the task together with every dependency edge touching it.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	var removed []dependency.Edge
	err := s.sched.write(func(g *dependency.Graph) error {
		if err := s.store.DeleteTask(ctx, id); err != nil {
			return err
		}
		removed = g.RemoveNode(id)
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.TasksDeleted.Add(ctx, 1)
	}
	s.events.Publish(ctx, messagequeue.SubjectTaskDeleted, messagequeue.TaskEventPayload{TaskID: id})
	for _, e := range removed {
		s.events.Publish(ctx, messagequeue.SubjectDependencyRemoved, dependencyEvent(e))
	}
	return nil
}

// SetStatus moves the task to status. Unknown states yield domain.ErrInvalidState.
func (s *TaskService) SetStatus(ctx context.Context, id int64, status string) (*task.Task, error) {
	st, err := task.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	var updated *task.Task
	err = s.sched.write(func(_ *dependency.Graph) error {
		if err := s.store.UpdateTaskStatus(ctx, id, st); err != nil {
			return err
		}
		var err error
		updated, err = s.store.GetTask(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(st))))
	}
	s.events.Publish(ctx, messagequeue.SubjectTaskStatus, messagequeue.TaskStatusPayload{TaskID: id, Status: string(st)})
	return updated, nil
}

// Assign sets the assignee without a role check. Use
// AssignmentService.AssignManual for user-facing assignment.
func (s *TaskService) Assign(ctx context.Context, id, personID int64) (*task.Task, error) {
	return s.setAssignee(ctx, id, &personID, false)
}

// Unassign clears the assignee of a task.
func (s *TaskService) Unassign(ctx context.Context, id int64) (*task.Task, error) {
	return s.setAssignee(ctx, id, nil, true)
}

func (s *TaskService) setAssignee(ctx context.Context, id int64, personID *int64, manual bool) (*task.Task, error) {
	var updated *task.Task
	err := s.sched.write(func(_ *dependency.Graph) error {
		if err := s.store.SetTaskAssignee(ctx, id, personID); err != nil {
			return err
		}
		var err error
		updated, err = s.store.GetTask(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, messagequeue.SubjectTaskAssigned, messagequeue.TaskAssignedPayload{
		TaskID:   id,
		PersonID: personID,
		Manual:   manual,
	})
	return updated, nil
}

// SubscribeStatusRequests applies status changes that external workers
// request on tasks.status.request. The returned function cancels the
// subscription.
func (s *TaskService) SubscribeStatusRequests(ctx context.Context, queue messagequeue.Queue) (func(), error) {
	return queue.Subscribe(ctx, messagequeue.SubjectTaskStatusRequest, s.handleStatusRequest)
}

func (s *TaskService) handleStatusRequest(ctx context.Context, _ string, data []byte) error {
	var req messagequeue.TaskStatusPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode status request: %w", err)
	}
	if _, err := s.SetStatus(ctx, req.TaskID, req.Status); err != nil {
		return fmt.Errorf("status request for task %d: %w", req.TaskID, err)
	}
	slog.InfoContext(ctx, "status request applied", "task_id", req.TaskID, "status", req.Status)
	return nil
}

func taskEvent(t *task.Task) messagequeue.TaskEventPayload {
	return messagequeue.TaskEventPayload{
		TaskID:      t.ID,
		Description: t.Description,
		TargetRole:  t.TargetRole,
		Priority:    t.Priority,
		Status:      string(t.Status),
	}
}

func dependencyEvent(e dependency.Edge) messagequeue.DependencyPayload {
	return messagequeue.DependencyPayload{PrerequisiteTaskID: e.From, DependentTaskID: e.To}
}
