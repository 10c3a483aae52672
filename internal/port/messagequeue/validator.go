package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target any
	switch subject {
	case SubjectTaskCreated, SubjectTaskUpdated, SubjectTaskDeleted:
		target = &TaskEventPayload{}
	case SubjectTaskStatus, SubjectTaskStatusRequest:
		target = &TaskStatusPayload{}
	case SubjectTaskAssigned:
		target = &TaskAssignedPayload{}
	case SubjectDependencyAdded, SubjectDependencyRemoved:
		target = &DependencyPayload{}
	case SubjectAssignmentCompleted:
		target = &AssignmentCompletedPayload{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return checkRequired(subject, target)
}

func checkRequired(subject string, target any) error {
	switch p := target.(type) {
	case *TaskEventPayload:
		if p.TaskID <= 0 {
			return fmt.Errorf("%s: task_id is required", subject)
		}
	case *TaskStatusPayload:
		if p.TaskID <= 0 {
			return fmt.Errorf("%s: task_id is required", subject)
		}
		if p.Status == "" {
			return fmt.Errorf("%s: status is required", subject)
		}
	case *TaskAssignedPayload:
		if p.TaskID <= 0 {
			return fmt.Errorf("%s: task_id is required", subject)
		}
	case *DependencyPayload:
		if p.PrerequisiteTaskID <= 0 || p.DependentTaskID <= 0 {
			return errors.New(subject + ": both task ids are required")
		}
	}
	return nil
}
