// Package task defines the Task domain entity.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/TaskMate/internal/domain"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is one of the known task states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Open reports whether a task in this state still counts against its assignee.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidState, s)
	}
	return st, nil
}

// RoleAll marks an emergency task that any role may take.
const RoleAll = "All"

const (
	PriorityHighest = 1
	PriorityLowest  = 5
	PriorityDefault = 3
)

// Task is a unit of work scheduled for a team member.
type Task struct {
	ID               int64     `json:"id"`
	Description      string    `json:"description"`
	TargetRole       string    `json:"target_role"`
	Priority         int       `json:"priority"`
	Date             Date      `json:"date"`
	Deadline         Date      `json:"deadline"`
	Status           Status    `json:"status"`
	AssignedPersonID *int64    `json:"assigned_person_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Assigned reports whether the task has an assignee.
func (t *Task) Assigned() bool {
	return t.AssignedPersonID != nil
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	Description string `json:"description"`
	TargetRole  string `json:"target_role"`
	Priority    int    `json:"priority"`
	Date        *Date  `json:"date,omitempty"`
	Deadline    *Date  `json:"deadline,omitempty"`
}

// Validate checks required fields and the priority range.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if strings.TrimSpace(r.TargetRole) == "" {
		return fmt.Errorf("%w: target_role is required", domain.ErrValidation)
	}
	if r.Priority != 0 {
		if err := validatePriority(r.Priority); err != nil {
			return err
		}
	}
	return nil
}

// New builds a pending, unassigned task from a validated request. Priority
// defaults to PriorityDefault, date to today and deadline to date.
func (r *CreateRequest) New(now time.Time) Task {
	t := Task{
		Description: strings.TrimSpace(r.Description),
		TargetRole:  strings.TrimSpace(r.TargetRole),
		Priority:    r.Priority,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == 0 {
		t.Priority = PriorityDefault
	}
	if r.Date != nil && !r.Date.IsZero() {
		t.Date = *r.Date
	} else {
		t.Date = DateOf(now)
	}
	if r.Deadline != nil && !r.Deadline.IsZero() {
		t.Deadline = *r.Deadline
	} else {
		t.Deadline = t.Date
	}
	return t
}

// UpdateRequest holds the mutable fields of a task. Nil fields are left unchanged.
type UpdateRequest struct {
	Description *string `json:"description,omitempty"`
	TargetRole  *string `json:"target_role,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Date        *Date   `json:"date,omitempty"`
	Deadline    *Date   `json:"deadline,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", domain.ErrValidation)
	}
	if r.TargetRole != nil && strings.TrimSpace(*r.TargetRole) == "" {
		return fmt.Errorf("%w: target_role must not be empty", domain.ErrValidation)
	}
	if r.Priority != nil {
		return validatePriority(*r.Priority)
	}
	return nil
}

// Apply merges the present fields into t.
func (r *UpdateRequest) Apply(t *Task, now time.Time) {
	if r.Description != nil {
		t.Description = strings.TrimSpace(*r.Description)
	}
	if r.TargetRole != nil {
		t.TargetRole = strings.TrimSpace(*r.TargetRole)
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.Date != nil {
		t.Date = *r.Date
	}
	if r.Deadline != nil {
		t.Deadline = *r.Deadline
	}
	t.UpdatedAt = now
}

func validatePriority(p int) error {
	if p < PriorityHighest || p > PriorityLowest {
		return fmt.Errorf("%w: priority must be between %d and %d", domain.ErrValidation, PriorityHighest, PriorityLowest)
	}
	return nil
}
