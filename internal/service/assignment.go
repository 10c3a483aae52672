package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	tmotel "github.com/Strob0t/TaskMate/internal/adapter/otel"
	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/assignment"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/task"
	"github.com/Strob0t/TaskMate/internal/port/database"
	"github.com/Strob0t/TaskMate/internal/port/messagequeue"
)

// AssignmentService distributes pending tasks over team members.
type AssignmentService struct {
	store   database.Store
	sched   *Scheduler
	events  *Events
	metrics *tmotel.Metrics
	now     func() time.Time
}

// NewAssignmentService creates a new AssignmentService. events and metrics may be nil.
func NewAssignmentService(store database.Store, sched *Scheduler, events *Events, metrics *tmotel.Metrics) *AssignmentService {
	return &AssignmentService{
		store:   store,
		sched:   sched,
		events:  events,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AutoAssign assigns pending, unassigned tasks to the requested members
// using the requested strategy. Tasks no member may take are reported in
// the result rather than failing the run. Member ids that do not exist are
// ignored; if none exist the request is rejected. All assignments of a run
// are persisted atomically.
func (s *AssignmentService) AutoAssign(ctx context.Context, req assignment.Request) (*assignment.Result, error) {
	strategy, err := req.Validate()
	if err != nil {
		return nil, err
	}

	ctx, span := tmotel.StartAssignmentSpan(ctx, string(strategy), len(req.MemberIDs), req.TaskLimit)
	defer span.End()
	start := time.Now()

	var res assignment.Result
	err = s.sched.write(func(_ *dependency.Graph) error {
		members, err := s.pool(ctx, req.Members())
		if err != nil {
			return err
		}
		tasks, err := s.store.ListTasks(ctx)
		if err != nil {
			return err
		}

		candidates := assignment.Candidates(tasks, task.DateOf(s.now()))
		res = assignment.Plan(strategy, candidates, members, req.TaskLimit)
		return s.store.ApplyAssignments(ctx, res.Assignments)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("strategy", string(strategy)))
		s.metrics.AssignmentRuns.Add(ctx, 1, attrs)
		s.metrics.TasksAssigned.Add(ctx, int64(res.AssignedCount), attrs)
		s.metrics.AssignmentDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	slog.InfoContext(ctx, "auto-assignment completed",
		"strategy", strategy,
		"assigned", res.AssignedCount,
		"unassigned", len(res.UnassignedTaskIDs),
	)
	s.events.Publish(ctx, messagequeue.SubjectAssignmentCompleted, completedEvent(&res))
	return &res, nil
}

// AssignManual assigns a task to a person after checking the person's role
// may take it. An ineligible person yields domain.ErrValidation.
func (s *AssignmentService) AssignManual(ctx context.Context, taskID, personID int64) (*task.Task, error) {
	var updated *task.Task
	err := s.sched.write(func(_ *dependency.Graph) error {
		t, err := s.store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		p, err := s.store.GetPerson(ctx, personID)
		if err != nil {
			return err
		}
		if !p.CanTake(t) {
			return fmt.Errorf("%w: person %d (%s) cannot take a task for role %q",
				domain.ErrValidation, p.ID, p.Role, t.TargetRole)
		}
		if err := s.store.SetTaskAssignee(ctx, taskID, &personID); err != nil {
			return err
		}
		updated, err = s.store.GetTask(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, messagequeue.SubjectTaskAssigned, messagequeue.TaskAssignedPayload{
		TaskID:   taskID,
		PersonID: &personID,
		Manual:   true,
	})
	return updated, nil
}

// Stats returns every person with their count of open tasks.
func (s *AssignmentService) Stats(ctx context.Context) ([]person.Workload, error) {
	var loads []person.Workload
	err := s.sched.read(func(_ *dependency.Graph, _ uint64) error {
		var err error
		loads, err = s.store.ListWorkloads(ctx)
		return err
	})
	return loads, err
}

// pool resolves member ids to workloads in request order.
func (s *AssignmentService) pool(ctx context.Context, ids []int64) ([]person.Workload, error) {
	loads, err := s.store.ListWorkloads(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]person.Workload, len(loads))
	for _, w := range loads {
		byID[w.ID] = w
	}

	members := make([]person.Workload, 0, len(ids))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			members = append(members, w)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: none of the requested members exist", domain.ErrValidation)
	}
	return members, nil
}

func completedEvent(res *assignment.Result) messagequeue.AssignmentCompletedPayload {
	refs := make([]messagequeue.AssignmentRef, len(res.Assignments))
	for i, a := range res.Assignments {
		refs[i] = messagequeue.AssignmentRef{TaskID: a.TaskID, PersonID: a.PersonID}
	}
	return messagequeue.AssignmentCompletedPayload{
		Strategy:      string(res.Strategy),
		AssignedCount: res.AssignedCount,
		Distribution:  res.Distribution,
		Unassigned:    res.UnassignedTaskIDs,
		Assignments:   refs,
	}
}
