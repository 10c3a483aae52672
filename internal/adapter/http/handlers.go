package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/TaskMate/internal/domain/assignment"
	"github.com/Strob0t/TaskMate/internal/domain/task"
	"github.com/Strob0t/TaskMate/internal/service"
)

// HealthCheck reports the state of one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tasks        *service.TaskService
	Dependencies *service.DependencyService
	Priority     *service.PriorityService
	Assignment   *service.AssignmentService
	People       *service.PersonService
	Checks       []HealthCheck
}

// ListTasks handles GET /api/v1/tasks?sort=priority|deadline|both|id
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context(), task.ParseSortKey(r.URL.Query().Get("sort")))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CountActiveTasks handles GET /api/v1/tasks/count
func (h *Handlers) CountActiveTasks(w http.ResponseWriter, r *http.Request) {
	n, err := h.Tasks.ActiveCount(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active": n})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetTaskStatus handles PUT /api/v1/tasks/{id}/status
func (h *Handlers) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[statusRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Tasks.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type assignRequest struct {
	PersonID int64 `json:"person_id"`
}

// AssignTask handles PUT /api/v1/tasks/{id}/assign
func (h *Handlers) AssignTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[assignRequest](w, r)
	if !ok {
		return
	}
	if req.PersonID <= 0 {
		writeError(w, http.StatusBadRequest, "person_id is required")
		return
	}
	t, err := h.Assignment.AssignManual(r.Context(), id, req.PersonID)
	if err != nil {
		writeDomainError(w, err, "task or person not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UnassignTask handles DELETE /api/v1/tasks/{id}/assign
func (h *Handlers) UnassignTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Tasks.Unassign(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TopPriorityTasks handles GET /api/v1/tasks/priority/top?n=
func (h *Handlers) TopPriorityTasks(w http.ResponseWriter, r *http.Request) {
	n, ok := intQuery(w, r, "n", h.Priority.DefaultN())
	if !ok {
		return
	}
	top, err := h.Priority.TopN(r.Context(), n)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// NextTask handles GET /api/v1/tasks/priority/next
func (h *Handlers) NextTask(w http.ResponseWriter, r *http.Request) {
	next, err := h.Priority.Next(r.Context())
	if err != nil {
		writeDomainError(w, err, "no pending unassigned task")
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// AutoAssign handles POST /api/v1/tasks/auto-assign
func (h *Handlers) AutoAssign(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[assignment.Request](w, r)
	if !ok {
		return
	}
	res, err := h.Assignment.AutoAssign(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type dependencyRequest struct {
	PrerequisiteTaskID int64 `json:"prerequisite_task_id"`
	DependentTaskID    int64 `json:"dependent_task_id"`
}

// AddDependency handles POST /api/v1/dependencies
func (h *Handlers) AddDependency(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[dependencyRequest](w, r)
	if !ok {
		return
	}
	if req.PrerequisiteTaskID <= 0 || req.DependentTaskID <= 0 {
		writeError(w, http.StatusBadRequest, "prerequisite_task_id and dependent_task_id are required")
		return
	}
	edge, err := h.Dependencies.Add(r.Context(), req.PrerequisiteTaskID, req.DependentTaskID)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// RemoveDependency handles DELETE /api/v1/dependencies/{id}/{dependentId}
func (h *Handlers) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	prereq, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	dependent, ok := idParam(w, r, "dependentId")
	if !ok {
		return
	}
	if err := h.Dependencies.Remove(r.Context(), prereq, dependent); err != nil {
		writeDomainError(w, err, "dependency not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TaskImpact handles GET /api/v1/dependencies/{id}/impact
func (h *Handlers) TaskImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.Dependencies.Impact(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /health. It answers 503 when any check fails.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.Checks))}
	code := http.StatusOK
	for _, c := range h.Checks {
		if err := c.Check(r.Context()); err != nil {
			resp.Checks[c.Name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	writeJSON(w, code, resp)
}
