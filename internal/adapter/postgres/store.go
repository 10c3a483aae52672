package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/assignment"
	"github.com/Strob0t/TaskMate/internal/domain/dependency"
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const taskColumns = `id, description, target_role, priority, date, deadline, status, assigned_person_id, created_at, updated_at`

// --- Tasks ---

func (s *Store) ListTasks(ctx context.Context) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "get task %d", id)
	}
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	status := t.Status
	if status == "" {
		status = task.StatusPending
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (description, target_role, priority, date, deadline, status, assigned_person_id)
		 VALUES ($1, $2, $3, COALESCE($4::date, CURRENT_DATE), COALESCE($5::date, $4::date, CURRENT_DATE), $6, $7)
		 RETURNING `+taskColumns,
		t.Description, t.TargetRole, t.Priority, dateArg(t.Date), dateArg(t.Deadline), string(status), t.AssignedPersonID)

	created, err := scanTask(row)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, fmt.Errorf("create task: assignee: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &created, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *task.Task) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET description = $2, target_role = $3, priority = $4, date = $5, deadline = $6
		 WHERE id = $1`,
		t.ID, t.Description, t.TargetRole, t.Priority, t.Date.Time, t.Deadline.Time)
	return execExpectOne(tag, err, "update task %d", t.ID)
}

// DeleteTask relies on ON DELETE CASCADE to drop the task's dependency edges.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete task %d", id)
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status task.Status) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tasks SET status = $2 WHERE id = $1`, id, string(status))
	return execExpectOne(tag, err, "update task status %d", id)
}

func (s *Store) SetTaskAssignee(ctx context.Context, id int64, personID *int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tasks SET assigned_person_id = $2 WHERE id = $1`, id, personID)
	if pgCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("set task assignee %d: person %d: %w", id, *personID, domain.ErrNotFound)
	}
	return execExpectOne(tag, err, "set task assignee %d", id)
}

func (s *Store) ApplyAssignments(ctx context.Context, assignments []assignment.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, a := range assignments {
		tag, err := tx.Exec(ctx, `UPDATE tasks SET assigned_person_id = $2 WHERE id = $1`, a.TaskID, a.PersonID)
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("apply assignments: person %d: %w", a.PersonID, domain.ErrNotFound)
		}
		if err := execExpectOne(tag, err, "apply assignments: task %d", a.TaskID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit assignments: %w", err)
	}
	return nil
}

// CountTasksByStatus counts tasks in any of the given states, or all tasks
// when no state is given.
func (s *Store) CountTasksByStatus(ctx context.Context, statuses ...task.Status) (int, error) {
	var n int
	var err error
	if len(statuses) == 0 {
		err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	} else {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE status = ANY($1)`, names).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// --- Dependencies ---

func (s *Store) ListDependencies(ctx context.Context) ([]dependency.Edge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT prerequisite_task_id, dependent_task_id FROM task_dependencies
		 ORDER BY prerequisite_task_id, dependent_task_id`)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	edges := []dependency.Edge{}
	for rows.Next() {
		var e dependency.Edge
		if err := rows.Scan(&e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *Store) CreateDependency(ctx context.Context, e dependency.Edge) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_dependencies (prerequisite_task_id, dependent_task_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`, e.From, e.To)
	switch pgCode(err) {
	case "":
	case pgForeignKeyViolation:
		return fmt.Errorf("create dependency %d->%d: %w", e.From, e.To, domain.ErrUnknownTask)
	case pgCheckViolation:
		return fmt.Errorf("create dependency %d->%d: %w", e.From, e.To, domain.ErrSelfDependency)
	}
	if err != nil {
		return fmt.Errorf("create dependency %d->%d: %w", e.From, e.To, err)
	}
	return nil
}

func (s *Store) DeleteDependency(ctx context.Context, e dependency.Edge) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM task_dependencies WHERE prerequisite_task_id = $1 AND dependent_task_id = $2`, e.From, e.To)
	return execExpectOne(tag, err, "delete dependency %d->%d", e.From, e.To)
}

// --- People ---

func (s *Store) ListPeople(ctx context.Context) ([]person.Person, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, role, created_at FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	people := []person.Person{}
	for rows.Next() {
		var p person.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (s *Store) GetPerson(ctx context.Context, id int64) (*person.Person, error) {
	var p person.Person
	err := s.pool.QueryRow(ctx, `SELECT id, name, role, created_at FROM people WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Role, &p.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get person %d", id)
	}
	return &p, nil
}

func (s *Store) CreatePerson(ctx context.Context, req person.CreateRequest) (*person.Person, error) {
	var p person.Person
	err := s.pool.QueryRow(ctx,
		`INSERT INTO people (name, role) VALUES ($1, $2) RETURNING id, name, role, created_at`,
		req.Name, req.Role).Scan(&p.ID, &p.Name, &p.Role, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return &p, nil
}

func (s *Store) ListWorkloads(ctx context.Context) ([]person.Workload, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.role, p.created_at,
		        COUNT(t.id) FILTER (WHERE t.status IN ('Pending', 'In Progress'))
		 FROM people p
		 LEFT JOIN tasks t ON t.assigned_person_id = p.id
		 GROUP BY p.id
		 ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list workloads: %w", err)
	}
	defer rows.Close()

	loads := []person.Workload{}
	for rows.Next() {
		var w person.Workload
		if err := rows.Scan(&w.ID, &w.Name, &w.Role, &w.CreatedAt, &w.OpenTasks); err != nil {
			return nil, fmt.Errorf("scan workload: %w", err)
		}
		loads = append(loads, w)
	}
	return loads, rows.Err()
}

// --- Scan helpers ---

func scanTask(row scannable) (task.Task, error) {
	var t task.Task
	var date, deadline time.Time
	var status string
	err := row.Scan(&t.ID, &t.Description, &t.TargetRole, &t.Priority, &date, &deadline,
		&status, &t.AssignedPersonID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Date = dateFrom(date)
	t.Deadline = dateFrom(deadline)
	t.Status = task.Status(status)
	return t, nil
}
