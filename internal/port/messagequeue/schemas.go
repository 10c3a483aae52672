package messagequeue

// TaskEventPayload is the schema for tasks.created, tasks.updated and
// tasks.deleted messages.
type TaskEventPayload struct {
	TaskID      int64  `json:"task_id"`
	Description string `json:"description,omitempty"`
	TargetRole  string `json:"target_role,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TaskStatusPayload is the schema for tasks.status and tasks.status.request messages.
type TaskStatusPayload struct {
	TaskID int64  `json:"task_id"`
	Status string `json:"status"`
}

// TaskAssignedPayload is the schema for tasks.assigned messages.
// A nil PersonID means the task was unassigned.
type TaskAssignedPayload struct {
	TaskID   int64  `json:"task_id"`
	PersonID *int64 `json:"person_id"`
	Manual   bool   `json:"manual"`
}

// DependencyPayload is the schema for dependencies.added and dependencies.removed messages.
type DependencyPayload struct {
	PrerequisiteTaskID int64 `json:"prerequisite_task_id"`
	DependentTaskID    int64 `json:"dependent_task_id"`
}

// AssignmentCompletedPayload is the schema for assignments.completed messages.
type AssignmentCompletedPayload struct {
	Strategy      string          `json:"strategy"`
	AssignedCount int             `json:"assigned_count"`
	Distribution  map[int64]int   `json:"distribution"`
	Unassigned    []int64         `json:"unassigned_task_ids"`
	Assignments   []AssignmentRef `json:"assignments"`
}

// AssignmentRef is one task-to-person pair inside AssignmentCompletedPayload.
type AssignmentRef struct {
	TaskID   int64 `json:"task_id"`
	PersonID int64 `json:"person_id"`
}
