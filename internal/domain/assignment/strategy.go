package assignment

import (
	"github.com/Strob0t/TaskMate/internal/domain/person"
	"github.com/Strob0t/TaskMate/internal/domain/task"
)

// picker chooses a member index for a task and tracks per-run state.
type picker interface {
	pick(t *task.Task) (int, bool)
	record(idx int)
}

func newPicker(strategy Strategy, members []person.Workload, taskCount int) picker {
	switch strategy {
	case BySkillMatch:
		threshold := 1
		if len(members) > 0 {
			threshold = max((taskCount+len(members)-1)/len(members), 1)
		}
		return &skillMatch{members: members, counts: make([]int, len(members)), threshold: threshold}
	case ByWorkload:
		load := make([]int, len(members))
		for i := range members {
			load[i] = members[i].OpenTasks
		}
		return &workload{members: members, load: load}
	default:
		return &roundRobin{members: members}
	}
}

// roundRobin cycles through the members. Ineligible members are skipped
// and the cursor moves past the chosen one.
type roundRobin struct {
	members []person.Workload
	cursor  int
}

func (r *roundRobin) pick(t *task.Task) (int, bool) {
	n := len(r.members)
	for k := range n {
		i := (r.cursor + k) % n
		if r.members[i].CanTake(t) {
			return i, true
		}
	}
	return 0, false
}

func (r *roundRobin) record(idx int) {
	r.cursor = (idx + 1) % len(r.members)
}

// skillMatch prefers the first role match in member order, up to a per-run
// fairness threshold. Once every match is at the threshold the least-used
// match takes the task.
type skillMatch struct {
	members   []person.Workload
	counts    []int
	threshold int
}

func (s *skillMatch) pick(t *task.Task) (int, bool) {
	fallback := -1
	for i := range s.members {
		if !s.members[i].CanTake(t) {
			continue
		}
		if s.counts[i] < s.threshold {
			return i, true
		}
		if fallback < 0 || s.counts[i] < s.counts[fallback] {
			fallback = i
		}
	}
	return fallback, fallback >= 0
}

func (s *skillMatch) record(idx int) {
	s.counts[idx]++
}

// workload picks the eligible member with the fewest open tasks, counting
// the assignments made so far in this run. Ties go to member order.
type workload struct {
	members []person.Workload
	load    []int
}

func (w *workload) pick(t *task.Task) (int, bool) {
	best := -1
	for i := range w.members {
		if !w.members[i].CanTake(t) {
			continue
		}
		if best < 0 || w.load[i] < w.load[best] {
			best = i
		}
	}
	return best, best >= 0
}

func (w *workload) record(idx int) {
	w.load[idx]++
}
