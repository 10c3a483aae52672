// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates malformed or out-of-range input. Wrap it with
// fmt.Errorf("%w: <detail>", ErrValidation) so the detail reaches the caller.
var ErrValidation = errors.New("invalid argument")

// ErrInvalidState indicates a value outside the allowed task states.
var ErrInvalidState = errors.New("invalid state")

// ErrSelfDependency indicates a task was declared as its own prerequisite.
var ErrSelfDependency = errors.New("a task cannot depend on itself")

// ErrCycleDetected indicates that adding an edge would close a dependency cycle.
var ErrCycleDetected = errors.New("dependency would create a cycle")

// ErrUnknownTask indicates a dependency operation referenced a task id that does not exist.
var ErrUnknownTask = errors.New("unknown task")
