package household

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is returned when a child's back-reference does not
// point at the parent it is being registered into.
var ErrInvariantViolation = errors.New("invariant violation")

// InvariantError describes a rejected registration.
type InvariantError struct {
	Parent   string
	ParentID int64
	ChildID  int64
	// BackRef is the parent ID the child actually points at.
	BackRef int64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: child %d references %s %d, not %d",
		ErrInvariantViolation, e.ChildID, e.Parent, e.BackRef, e.ParentID)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// Household holds the task locations belonging to one user, in the order
// they were added.
type Household struct {
	ID        int64
	User      string
	locations []*TaskLocation
}

func New(id int64, user string) *Household {
	return &Household{ID: id, User: user}
}

// AddTaskLocation appends l after checking that l belongs to this household.
// On error the sequence is left untouched.
func (h *Household) AddTaskLocation(l *TaskLocation) error {
	if l == nil {
		return fmt.Errorf("add task location: %w", ErrInvariantViolation)
	}
	if l.HouseholdID != h.ID {
		return &InvariantError{Parent: "household", ParentID: h.ID, ChildID: l.ID, BackRef: l.HouseholdID}
	}
	h.locations = append(h.locations, l)
	return nil
}

// MustAddTaskLocation is like AddTaskLocation but panics on a mismatched
// back-reference.
func (h *Household) MustAddTaskLocation(l *TaskLocation) {
	if err := h.AddTaskLocation(l); err != nil {
		panic(err)
	}
}

// Locations returns a copy of the household's locations in insertion order.
func (h *Household) Locations() []*TaskLocation {
	out := make([]*TaskLocation, len(h.locations))
	copy(out, h.locations)
	return out
}

// TaskLocation is a named place in a household that groups tasks.
type TaskLocation struct {
	ID          int64
	User        string
	Name        string
	HouseholdID int64
	tasks       []*Task
}

// NewTaskLocation stores its inputs as given. Whether householdID names a
// household that registers the location is only checked by AddTaskLocation.
func NewTaskLocation(id int64, user, name string, householdID int64) *TaskLocation {
	return &TaskLocation{ID: id, User: user, Name: name, HouseholdID: householdID}
}

// AddTask appends t after checking that t belongs to this location.
func (l *TaskLocation) AddTask(t *Task) error {
	if t == nil {
		return fmt.Errorf("add task: %w", ErrInvariantViolation)
	}
	if t.LocationID != l.ID {
		return &InvariantError{Parent: "location", ParentID: l.ID, ChildID: t.ID, BackRef: t.LocationID}
	}
	l.tasks = append(l.tasks, t)
	return nil
}

func (l *TaskLocation) MustAddTask(t *Task) {
	if err := l.AddTask(t); err != nil {
		panic(err)
	}
}

func (l *TaskLocation) Tasks() []*Task {
	out := make([]*Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Task is a chore attached to exactly one location.
type Task struct {
	ID         int64
	Title      string
	LocationID int64
}
