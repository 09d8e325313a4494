package household

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrHouseholdNotFound = errors.New("household not found")
	ErrLocationNotFound  = errors.New("task location not found")
	ErrDuplicateID       = errors.New("id already registered")
)

// Registry is an in-memory arena of households and locations indexed by ID.
// Back-references are resolved by lookup, never by pointer. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	households map[int64]*Household
	locations  map[int64]*TaskLocation
	nextID     int64
}

func NewRegistry() *Registry {
	return &Registry{
		households: make(map[int64]*Household),
		locations:  make(map[int64]*TaskLocation),
	}
}

func (r *Registry) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *Registry) CreateHousehold(user string) *Household {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := New(r.id(), user)
	r.households[h.ID] = h
	return h
}

// Put registers an already built household graph, e.g. one loaded from
// storage. IDs handed out afterwards never collide with the graph's. The
// graph is rejected whole if its household or any of its locations is
// already registered.
func (r *Registry) Put(h *Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.households[h.ID]; ok {
		return fmt.Errorf("put household %d: %w", h.ID, ErrDuplicateID)
	}
	for _, l := range h.locations {
		if _, ok := r.locations[l.ID]; ok {
			return fmt.Errorf("put household %d: location %d: %w", h.ID, l.ID, ErrDuplicateID)
		}
	}

	r.households[h.ID] = h
	r.bump(h.ID)
	for _, l := range h.locations {
		r.locations[l.ID] = l
		r.bump(l.ID)
		for _, t := range l.tasks {
			r.bump(t.ID)
		}
	}
	return nil
}

func (r *Registry) bump(id int64) {
	if id > r.nextID {
		r.nextID = id
	}
}

// CreateTaskLocation constructs a location for the household and registers
// it in the same step.
func (r *Registry) CreateTaskLocation(householdID int64, user, name string) (*TaskLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.households[householdID]
	if !ok {
		return nil, fmt.Errorf("create task location %q: %w", name, ErrHouseholdNotFound)
	}
	l := NewTaskLocation(r.id(), user, name, householdID)
	if err := h.AddTaskLocation(l); err != nil {
		return nil, err
	}
	r.locations[l.ID] = l
	return l, nil
}

// AddTaskLocation registers an externally constructed location with its
// household, validating the back-reference.
func (r *Registry) AddTaskLocation(householdID int64, l *TaskLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.households[householdID]
	if !ok {
		return fmt.Errorf("add task location: %w", ErrHouseholdNotFound)
	}
	if l != nil {
		if _, ok := r.locations[l.ID]; ok {
			return fmt.Errorf("add task location %d: %w", l.ID, ErrDuplicateID)
		}
	}
	if err := h.AddTaskLocation(l); err != nil {
		return err
	}
	r.locations[l.ID] = l
	r.bump(l.ID)
	return nil
}

// CreateTask builds a task for the location and registers it.
func (r *Registry) CreateTask(locationID int64, title string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locations[locationID]
	if !ok {
		return nil, fmt.Errorf("create task %q: %w", title, ErrLocationNotFound)
	}
	t := &Task{ID: r.id(), Title: title, LocationID: locationID}
	if err := l.AddTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddTask registers t with the location identified by locationID.
func (r *Registry) AddTask(locationID int64, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locations[locationID]
	if !ok {
		return fmt.Errorf("add task: %w", ErrLocationNotFound)
	}
	if err := l.AddTask(t); err != nil {
		return err
	}
	r.bump(t.ID)
	return nil
}

func (r *Registry) Household(id int64) (*Household, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.households[id]
	return h, ok
}

func (r *Registry) Location(id int64) (*TaskLocation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	return l, ok
}

// LocationHousehold follows a location's back-reference to its household.
func (r *Registry) LocationHousehold(locationID int64) (*Household, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[locationID]
	if !ok {
		return nil, false
	}
	h, ok := r.households[l.HouseholdID]
	return h, ok
}
