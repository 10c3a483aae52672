package task

import (
	"cmp"
	"slices"
)

// SortKey selects the ordering of a task listing.
type SortKey string

const (
	SortByID       SortKey = "id"
	SortByPriority SortKey = "priority"
	SortByDeadline SortKey = "deadline"
	SortByBoth     SortKey = "both"
)

// ParseSortKey maps a query value to a SortKey. Unknown values fall back to SortByID.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortByPriority, SortByDeadline, SortByBoth:
		return k
	default:
		return SortByID
	}
}

// Sort orders tasks in place by key. Ties always fall back to ascending id.
func Sort(tasks []Task, key SortKey) {
	slices.SortFunc(tasks, func(a, b Task) int {
		var c int
		switch key {
		case SortByPriority:
			c = cmp.Compare(a.Priority, b.Priority)
		case SortByDeadline:
			c = a.Deadline.Compare(b.Deadline.Time)
		case SortByBoth:
			c = cmp.Or(
				cmp.Compare(a.Priority, b.Priority),
				a.Deadline.Compare(b.Deadline.Time),
			)
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	})
}
