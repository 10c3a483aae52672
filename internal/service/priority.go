package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/TaskMate/internal/config"
	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/priority"
	"github.com/Strob0t/TaskMate/internal/domain/task"
	"github.com/Strob0t/TaskMate/internal/port/database"
)

// PriorityService ranks pending tasks by urgency.
type PriorityService struct {
	store database.Store
	sched *Scheduler
	views *ReadModels
	cfg   config.Scheduler
	now   func() time.Time
}

// NewPriorityService creates a new PriorityService. views may be nil.
func NewPriorityService(store database.Store, sched *Scheduler, views *ReadModels, cfg config.Scheduler) *PriorityService {
	return &PriorityService{
		store: store,
		sched: sched,
		views: views,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// DefaultN is the ranking size used when the caller gives none.
func (s *PriorityService) DefaultN() int {
	return s.cfg.DefaultTopN
}

// TopN returns up to n pending tasks, most urgent first. n is capped at the
// configured maximum; a negative n yields domain.ErrValidation.
func (s *PriorityService) TopN(ctx context.Context, n int) ([]priority.Entry, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must be >= 0, got %d", domain.ErrValidation, n)
	}
	if s.cfg.MaxTopN > 0 && n > s.cfg.MaxTopN {
		n = s.cfg.MaxTopN
	}
	today := task.DateOf(s.now())

	var top []priority.Entry
	err := s.sched.read(func(_ *dependency.Graph, version uint64) error {
		view := fmt.Sprintf("top-%d-%s", n, today)
		var err error
		top, err = loadView(ctx, s.views, view, s.sched.stateKey(version), func(ctx context.Context) ([]priority.Entry, error) {
			tasks, err := s.store.ListTasks(ctx)
			if err != nil {
				return nil, err
			}
			return priority.TopN(tasks, n, today)
		})
		return err
	})
	return top, err
}

// Next returns the most urgent pending task nobody is assigned to.
func (s *PriorityService) Next(ctx context.Context) (*priority.Entry, error) {
	today := task.DateOf(s.now())

	var next *priority.Entry
	err := s.sched.read(func(_ *dependency.Graph, _ uint64) error {
		tasks, err := s.store.ListTasks(ctx)
		if err != nil {
			return err
		}
		e, ok := priority.Next(tasks, today)
		if !ok {
			return fmt.Errorf("next task: no pending unassigned task: %w", domain.ErrNotFound)
		}
		next = &e
		return nil
	})
	return next, err
}
