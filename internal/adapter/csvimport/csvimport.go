// Package csvimport seeds tasks from a CSV file with the columns
// description,status,date,targetRole,priority,deadline[,assignedPersonId].
package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

const minColumns = 6

// Row is one parsed task line.
type Row struct {
	Line     int
	Request  task.CreateRequest
	Status   task.Status
	Assignee *int64
}

// TaskSink receives imported tasks. *service.TaskService satisfies it.
type TaskSink interface {
	Create(ctx context.Context, req task.CreateRequest) (*task.Task, error)
	SetStatus(ctx context.Context, id int64, status string) (*task.Task, error)
	Assign(ctx context.Context, id, personID int64) (*task.Task, error)
}

// Summary reports the outcome of an import.
type Summary struct {
	Created  int     `json:"created"`
	Assigned int     `json:"assigned"`
	TaskIDs  []int64 `json:"task_ids"`
}

// Parse reads every data row. The first line is a header and is skipped.
// A malformed row fails the whole parse with its line number.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if first || blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.Line = line
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (Row, error) {
	if len(rec) < minColumns {
		return Row{}, fmt.Errorf("%w: expected at least %d columns, got %d", domain.ErrValidation, minColumns, len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	status, err := task.ParseStatus(rec[1])
	if err != nil {
		return Row{}, err
	}
	date, err := task.ParseDate(rec[2])
	if err != nil {
		return Row{}, fmt.Errorf("date: %w", err)
	}
	prio, err := strconv.Atoi(rec[4])
	if err != nil {
		return Row{}, fmt.Errorf("%w: priority %q is not a number", domain.ErrValidation, rec[4])
	}
	deadline, err := task.ParseDate(rec[5])
	if err != nil {
		return Row{}, fmt.Errorf("deadline: %w", err)
	}

	row := Row{
		Request: task.CreateRequest{
			Description: rec[0],
			TargetRole:  rec[3],
			Priority:    prio,
			Date:        &date,
			Deadline:    &deadline,
		},
		Status: status,
	}
	if err := row.Request.Validate(); err != nil {
		return Row{}, err
	}
	if len(rec) > minColumns && rec[minColumns] != "" {
		id, err := strconv.ParseInt(rec[minColumns], 10, 64)
		if err != nil || id <= 0 {
			return Row{}, fmt.Errorf("%w: assignedPersonId %q is not a valid id", domain.ErrValidation, rec[minColumns])
		}
		row.Assignee = &id
	}
	return row, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Import creates the rows in file order, then applies their status and
// assignee. It stops at the first failure; tasks created before it remain.
func Import(ctx context.Context, rows []Row, sink TaskSink) (Summary, error) {
	sum := Summary{TaskIDs: make([]int64, 0, len(rows))}
	for i := range rows {
		row := &rows[i]
		t, err := sink.Create(ctx, row.Request)
		if err != nil {
			return sum, fmt.Errorf("line %d: create: %w", row.Line, err)
		}
		sum.Created++
		sum.TaskIDs = append(sum.TaskIDs, t.ID)

		if row.Status != task.StatusPending {
			if _, err := sink.SetStatus(ctx, t.ID, string(row.Status)); err != nil {
				return sum, fmt.Errorf("line %d: status: %w", row.Line, err)
			}
		}
		if row.Assignee != nil {
			if _, err := sink.Assign(ctx, t.ID, *row.Assignee); err != nil {
				return sum, fmt.Errorf("line %d: assign person %d: %w", row.Line, *row.Assignee, err)
			}
			sum.Assigned++
		}
	}
	slog.InfoContext(ctx, "tasks imported", "created", sum.Created, "assigned", sum.Assigned)
	return sum, nil
}
