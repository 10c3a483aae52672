package assignment_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/Strob0t/TaskMate/internal/domain"
	"github.com/Strob0t/TaskMate/internal/domain/assignment"
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/priority"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

func member(id int64, role string, open int) person.Workload {
	return person.Workload{Person: person.Person{ID: id, Role: role}, OpenTasks: open}
}

func entries(roles ...string) []priority.Entry {
	out := make([]priority.Entry, len(roles))
	for i, r := range roles {
		out[i] = priority.Entry{Task: task.Task{ID: int64(i + 1), TargetRole: r, Status: task.StatusPending, Priority: 3}}
	}
	return out
}

func assignedTo(res assignment.Result) map[int64]int64 {
	m := make(map[int64]int64, len(res.Assignments))
	for _, a := range res.Assignments {
		m[a.TaskID] = a.PersonID
	}
	return m
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]assignment.Strategy{
		"ROUND_ROBIN":    assignment.RoundRobin,
		"RoundRobin":     assignment.RoundRobin,
		"by_skill_match": assignment.BySkillMatch,
		"BY_WORKLOAD":    assignment.ByWorkload,
	}
	for in, want := range tests {
		got, err := assignment.ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := assignment.ParseStrategy("RANDOM"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  assignment.Request
		ok   bool
	}{
		{"valid", assignment.Request{Strategy: "ROUND_ROBIN", MemberIDs: []int64{1}}, true},
		{"limit", assignment.Request{Strategy: "BY_WORKLOAD", MemberIDs: []int64{1}, TaskLimit: 3}, true},
		{"no members", assignment.Request{Strategy: "ROUND_ROBIN"}, false},
		{"negative limit", assignment.Request{Strategy: "ROUND_ROBIN", MemberIDs: []int64{1}, TaskLimit: -1}, false},
		{"bad strategy", assignment.Request{Strategy: "", MemberIDs: []int64{1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRequestMembersDedup(t *testing.T) {
	req := assignment.Request{MemberIDs: []int64{3, 1, 3, 2, 1}}
	if got := req.Members(); !slices.Equal(got, []int64{3, 1, 2}) {
		t.Errorf("Members() = %v", got)
	}
}

func TestRoundRobin_Fairness(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "Dev", 0), member(3, "Dev", 0)}
	res := assignment.Plan(assignment.RoundRobin, entries("Dev", "Dev", "Dev", "Dev", "Dev", "Dev"), members, 0)

	if res.AssignedCount != 6 {
		t.Fatalf("assigned %d, want 6", res.AssignedCount)
	}
	for id, n := range res.Distribution {
		if n != 2 {
			t.Errorf("member %d got %d tasks, want 2", id, n)
		}
	}
	got := assignedTo(res)
	want := map[int64]int64{1: 1, 2: 2, 3: 3, 4: 1, 5: 2, 6: 3}
	for tid, p := range want {
		if got[tid] != p {
			t.Errorf("task %d -> %d, want %d", tid, got[tid], p)
		}
	}
}

func TestRoundRobin_SkipsIneligible(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "QA", 0), member(3, "Dev", 0)}
	res := assignment.Plan(assignment.RoundRobin, entries("Dev", "QA", "Dev", "Ops", "All"), members, 0)

	got := assignedTo(res)
	// Dev -> 1, QA -> 2, Dev -> 3 (cursor after 2), Ops -> nobody, All -> 1.
	want := map[int64]int64{1: 1, 2: 2, 3: 3, 5: 1}
	for tid, p := range want {
		if got[tid] != p {
			t.Errorf("task %d -> %d, want %d", tid, got[tid], p)
		}
	}
	if !slices.Equal(res.UnassignedTaskIDs, []int64{4}) {
		t.Errorf("unassigned = %v, want [4]", res.UnassignedTaskIDs)
	}
}

func TestNoCrossRoleLeakage(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "QA", 5), member(3, "Ops", 1)}
	roles := map[int64]string{1: "Dev", 2: "QA", 3: "Ops"}
	tasks := entries("Dev", "QA", "Ops", "All", "QA", "Dev", "Design", "All")

	for _, st := range []assignment.Strategy{assignment.RoundRobin, assignment.BySkillMatch, assignment.ByWorkload} {
		res := assignment.Plan(st, tasks, members, 0)
		for _, a := range res.Assignments {
			target := tasks[a.TaskID-1].TargetRole
			if target != task.RoleAll && roles[a.PersonID] != target {
				t.Errorf("%s: task %d (%s) assigned to %s member %d", st, a.TaskID, target, roles[a.PersonID], a.PersonID)
			}
		}
		if !slices.Contains(res.UnassignedTaskIDs, 7) {
			t.Errorf("%s: Design task should stay unassigned, got %v", st, res.UnassignedTaskIDs)
		}
	}
}

func TestBySkillMatch_Threshold(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "Dev", 0)}
	// 4 tasks over 2 members: threshold 2.
	res := assignment.Plan(assignment.BySkillMatch, entries("Dev", "Dev", "Dev", "Dev"), members, 0)

	got := assignedTo(res)
	want := map[int64]int64{1: 1, 2: 1, 3: 2, 4: 2}
	for tid, p := range want {
		if got[tid] != p {
			t.Errorf("task %d -> %d, want %d", tid, got[tid], p)
		}
	}
}

func TestBySkillMatch_ThresholdFollowsTaskLimit(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "Dev", 0)}
	// 6 candidates but only 2 handed out: threshold 1, one task each.
	res := assignment.Plan(assignment.BySkillMatch, entries("Dev", "Dev", "Dev", "Dev", "Dev", "Dev"), members, 2)

	if res.AssignedCount != 2 {
		t.Fatalf("assigned %d, want 2", res.AssignedCount)
	}
	if res.Distribution[1] != 1 || res.Distribution[2] != 1 {
		t.Errorf("distribution = %v, want one task each", res.Distribution)
	}
}

func TestBySkillMatch_ThresholdIgnoresUnassignableTasks(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "Dev", 0)}
	// Only the 2 Dev tasks count towards the threshold, so it is 1.
	res := assignment.Plan(assignment.BySkillMatch, entries("Dev", "Ops", "Ops", "Ops", "Ops", "Dev"), members, 0)

	got := assignedTo(res)
	if got[1] != 1 || got[6] != 2 {
		t.Errorf("assignments = %v, want task 1 -> 1 and task 6 -> 2", got)
	}
}

func TestBySkillMatch_OverThresholdFallsBackToLeastUsed(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "QA", 0), member(3, "QA", 0)}
	// 3 tasks over 3 members: threshold 1. Member 1 is the only Dev.
	res := assignment.Plan(assignment.BySkillMatch, entries("Dev", "Dev", "Dev"), members, 0)
	if res.AssignedCount != 3 || res.Distribution[1] != 3 {
		t.Errorf("only eligible member should take every task, got %+v", res.Distribution)
	}
}

func TestByWorkload(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 3), member(2, "Dev", 1), member(3, "Dev", 1)}
	res := assignment.Plan(assignment.ByWorkload, entries("Dev", "Dev", "Dev", "Dev"), members, 0)

	got := assignedTo(res)
	// loads 3,1,1 -> 2; 3,2,1 -> 3; 3,2,2 -> 2; 3,3,2 -> 3
	want := map[int64]int64{1: 2, 2: 3, 3: 2, 4: 3}
	for tid, p := range want {
		if got[tid] != p {
			t.Errorf("task %d -> %d, want %d", tid, got[tid], p)
		}
	}
	if res.Distribution[1] != 0 {
		t.Errorf("busiest member should get nothing, got %d", res.Distribution[1])
	}
}

func TestTaskLimit(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0)}
	res := assignment.Plan(assignment.RoundRobin, entries("Dev", "Ops", "Dev", "Dev"), members, 2)

	if res.AssignedCount != 2 {
		t.Fatalf("assigned %d, want 2", res.AssignedCount)
	}
	if got := assignedTo(res); got[1] != 1 || got[3] != 1 {
		t.Errorf("expected tasks 1 and 3 assigned, got %v", got)
	}
	if !slices.Equal(res.UnassignedTaskIDs, []int64{2}) {
		t.Errorf("unassigned = %v, want [2]", res.UnassignedTaskIDs)
	}
}

func TestPlan_DistributionIncludesIdleMembers(t *testing.T) {
	members := []person.Workload{member(1, "Dev", 0), member(2, "QA", 0)}
	res := assignment.Plan(assignment.ByWorkload, entries("Dev"), members, 0)
	if n, ok := res.Distribution[2]; !ok || n != 0 {
		t.Errorf("idle member missing from distribution: %v", res.Distribution)
	}
}

func TestCandidates(t *testing.T) {
	today, _ := task.ParseDate("2024-01-01")
	p := int64(1)
	tasks := []task.Task{
		{ID: 1, Priority: 3, Status: task.StatusPending, Deadline: today},
		{ID: 2, Priority: 1, Status: task.StatusPending, Deadline: today, AssignedPersonID: &p},
		{ID: 3, Priority: 1, Status: task.StatusInProgress, Deadline: today},
		{ID: 4, Priority: 2, Status: task.StatusPending, Deadline: today},
	}
	got := assignment.Candidates(tasks, today)
	if len(got) != 2 || got[0].ID != 4 || got[1].ID != 1 {
		t.Errorf("Candidates = %+v", got)
	}
}
