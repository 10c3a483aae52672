// Package person defines the team member entity the scheduler assigns tasks to.
package person

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// Person is a team member with a single role.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Eligible reports whether a person with the given role may take a task
// targeted at targetRole. Emergency tasks (task.RoleAll) accept any role.
func Eligible(role, targetRole string) bool {
	return targetRole == task.RoleAll || role == targetRole
}

// CanTake reports whether p may be assigned t.
func (p *Person) CanTake(t *task.Task) bool {
	return Eligible(p.Role, t.TargetRole)
}

// CreateRequest holds the fields needed to register a person.
type CreateRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	role := strings.TrimSpace(r.Role)
	if role == "" {
		return fmt.Errorf("%w: role is required", domain.ErrValidation)
	}
	if role == task.RoleAll {
		return fmt.Errorf("%w: %q is reserved for emergency tasks", domain.ErrValidation, task.RoleAll)
	}
	return nil
}

// Workload pairs a person with the number of open tasks assigned to them.
type Workload struct {
	Person
	OpenTasks int `json:"open_tasks"`
}
