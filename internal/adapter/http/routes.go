package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. The given
// middlewares wrap the /api/v1 group only.
func MountRoutes(r chi.Router, h *Handlers, middlewares ...func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares...)

		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"1.0.0"}`))
		})
		r.Get("/health", h.Health)

		// Tasks
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", handleCreate(h.Tasks.Create))
		r.Get("/tasks/count", h.CountActiveTasks)
		r.Get("/tasks/{id}", handleGet(h.Tasks.Get, "task not found"))
		r.Put("/tasks/{id}", handleUpdate(h.Tasks.Update, "task not found"))
		r.Delete("/tasks/{id}", handleDelete(h.Tasks.Delete, "task not found"))
		r.Put("/tasks/{id}/status", h.SetTaskStatus)
		r.Put("/tasks/{id}/assign", h.AssignTask)
		r.Delete("/tasks/{id}/assign", h.UnassignTask)
		r.Get("/tasks/{id}/dependencies", handleGet(h.Dependencies.ForTask, "task not found"))

		// Priority ranking
		r.Get("/tasks/priority/top", h.TopPriorityTasks)
		r.Get("/tasks/priority/next", h.NextTask)

		// Assignment
		r.Post("/tasks/auto-assign", h.AutoAssign)
		r.Get("/tasks/assignment-stats", handleList(h.Assignment.Stats))

		// Dependency graph
		r.Post("/dependencies", h.AddDependency)
		r.Get("/dependencies/graph", handleView(h.Dependencies.Graph))
		r.Get("/dependencies/critical-path", handleView(h.Dependencies.CriticalPath))
		r.Get("/dependencies/order", handleView(h.Dependencies.Order))
		r.Get("/dependencies/{id}/impact", h.TaskImpact)
		r.Delete("/dependencies/{id}/{dependentId}", h.RemoveDependency)

		// People
		r.Get("/people", handleList(h.People.List))
		r.Post("/people", handleCreate(h.People.Create))
		r.Get("/people/{id}", handleGet(h.People.Get, "person not found"))
	})
}
