// Package assignment distributes unassigned pending tasks over a pool of team
// members. Planning is pure: it computes the assignments and leaves
// persistence to the caller.
package assignment

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/priority"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// Strategy selects how candidates are chosen for each task.
type Strategy string

const (
	RoundRobin   Strategy = "ROUND_ROBIN"
	BySkillMatch Strategy = "BY_SKILL_MATCH"
	ByWorkload   Strategy = "BY_WORKLOAD"
)

// ParseStrategy accepts the wire names (ROUND_ROBIN) as well as their
// CamelCase and lower-case spellings.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "_", "")) {
	case "ROUNDROBIN":
		return RoundRobin, nil
	case "BYSKILLMATCH":
		return BySkillMatch, nil
	case "BYWORKLOAD":
		return ByWorkload, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", domain.ErrValidation, s)
}

// Request asks for an auto-assignment run.
type Request struct {
	Strategy  string  `json:"strategy"`
	MemberIDs []int64 `json:"member_ids"`
	TaskLimit int     `json:"task_limit"` // 0 means no limit
}

// Validate checks the request and returns the parsed strategy.
func (r *Request) Validate() (Strategy, error) {
	st, err := ParseStrategy(r.Strategy)
	if err != nil {
		return "", err
	}
	if len(r.MemberIDs) == 0 {
		return "", fmt.Errorf("%w: member_ids must not be empty", domain.ErrValidation)
	}
	if r.TaskLimit < 0 {
		return "", fmt.Errorf("%w: task_limit must be >= 0", domain.ErrValidation)
	}
	return st, nil
}

// Members returns the requested ids in order with duplicates removed.
func (r *Request) Members() []int64 {
	seen := make(map[int64]bool, len(r.MemberIDs))
	out := make([]int64, 0, len(r.MemberIDs))
	for _, id := range r.MemberIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Assignment pairs a task with the person chosen for it.
type Assignment struct {
	TaskID   int64 `json:"task_id"`
	PersonID int64 `json:"person_id"`
}

// Result summarizes an auto-assignment run.
type Result struct {
	Strategy          Strategy      `json:"strategy"`
	AssignedCount     int           `json:"assigned_count"`
	Assignments       []Assignment  `json:"assignments"`
	UnassignedTaskIDs []int64       `json:"unassigned_task_ids"`
	Distribution      map[int64]int `json:"distribution"`
	Message           string        `json:"message"`
}

// Candidates returns the tasks eligible for auto-assignment: pending and
// unassigned, most urgent first.
func Candidates(tasks []task.Task, today task.Date) []priority.Entry {
	open := make([]task.Task, 0, len(tasks))
	for i := range tasks {
		if !tasks[i].Assigned() {
			open = append(open, tasks[i])
		}
	}
	return priority.Rank(open, today)
}

// Plan walks tasks in the given order and picks a member for each according
// to strategy. Members must be non-empty. A task nobody in the pool may take
// is reported in UnassignedTaskIDs. Once limit assignments have been made
// (limit > 0) the remaining tasks are left untouched and not reported.
func Plan(strategy Strategy, tasks []priority.Entry, members []person.Workload, limit int) Result {
	res := Result{
		Strategy:          strategy,
		Assignments:       []Assignment{},
		UnassignedTaskIDs: []int64{},
		Distribution:      make(map[int64]int, len(members)),
	}
	for _, m := range members {
		res.Distribution[m.ID] = 0
	}

	p := newPicker(strategy, members, assignableCount(tasks, members, limit))
	for i := range tasks {
		if limit > 0 && res.AssignedCount >= limit {
			break
		}
		t := &tasks[i].Task
		idx, ok := p.pick(t)
		if !ok {
			res.UnassignedTaskIDs = append(res.UnassignedTaskIDs, t.ID)
			continue
		}
		p.record(idx)
		m := members[idx]
		res.Assignments = append(res.Assignments, Assignment{TaskID: t.ID, PersonID: m.ID})
		res.Distribution[m.ID]++
		res.AssignedCount++
	}

	res.Message = fmt.Sprintf("assigned %d task(s) to %d member(s) using %s", res.AssignedCount, len(members), strategy)
	if n := len(res.UnassignedTaskIDs); n > 0 {
		res.Message += fmt.Sprintf("; %d task(s) had no eligible member", n)
	}
	return res
}

// assignableCount is the number of tasks a run can hand out: those with at
// least one eligible member, capped at limit when limit is positive.
func assignableCount(tasks []priority.Entry, members []person.Workload, limit int) int {
	n := 0
	for i := range tasks {
		if slices.ContainsFunc(members, func(m person.Workload) bool { return m.CanTake(&tasks[i].Task) }) {
			n++
		}
	}
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}
