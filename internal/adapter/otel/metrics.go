package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskmate"

// Metrics holds all TaskMate metric instruments.
type Metrics struct {
	TasksCreated         metric.Int64Counter
	TasksDeleted         metric.Int64Counter
	StatusChanges        metric.Int64Counter
	DependenciesAdded    metric.Int64Counter
	DependenciesRejected metric.Int64Counter
	AssignmentRuns       metric.Int64Counter
	TasksAssigned        metric.Int64Counter
	AssignmentDuration   metric.Float64Histogram
	ReadModelHits        metric.Int64Counter
	ReadModelMisses      metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.TasksCreated, "taskmate.tasks.created", "Number of tasks created"},
		{&m.TasksDeleted, "taskmate.tasks.deleted", "Number of tasks deleted"},
		{&m.StatusChanges, "taskmate.tasks.status_changes", "Number of task status changes"},
		{&m.DependenciesAdded, "taskmate.dependencies.added", "Number of dependency edges added"},
		{&m.DependenciesRejected, "taskmate.dependencies.rejected", "Number of dependency edges rejected"},
		{&m.AssignmentRuns, "taskmate.assignment.runs", "Number of auto-assignment runs"},
		{&m.TasksAssigned, "taskmate.assignment.tasks", "Number of tasks assigned"},
		{&m.ReadModelHits, "taskmate.readmodel.hits", "Read model cache hits"},
		{&m.ReadModelMisses, "taskmate.readmodel.misses", "Read model cache misses"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.AssignmentDuration, err = meter.Float64Histogram("taskmate.assignment.duration_seconds",
		metric.WithDescription("Auto-assignment run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
