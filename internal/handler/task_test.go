package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dukerupert/taskhome/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTaskHandler(f *fixture) *TaskHandler {
	h := NewTaskHandler(f.households, f.locations, f.tasks, f.hub, f.logger)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestTaskCreate(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)
	kitchen := f.kitchen(t)
	id := strconv.FormatInt(kitchen.ID, 10)

	rec := httptest.NewRecorder()
	h.Create(rec, request(t, f.identity(), "POST", "/api/locations/"+id+"/tasks",
		map[string]any{"title": "Clean oven", "frequency_hours": 24}, "id", id))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	task := decode[model.Task](t, rec)
	if task.LocationID != kitchen.ID {
		t.Errorf("location = %d, want %d", task.LocationID, kitchen.ID)
	}
	if task.Icon != "stove" {
		t.Errorf("icon = %q, want stove", task.Icon)
	}
	if task.TimesPerInterval != 1 {
		t.Errorf("times_per_interval = %d, want 1", task.TimesPerInterval)
	}
	if want := fixedNow.Add(24 * time.Hour); !task.DueAt.Equal(want) {
		t.Errorf("due_at = %v, want %v", task.DueAt, want)
	}

	tasks, _ := f.tasks.ListByLocation(kitchen.ID)
	if last := tasks[len(tasks)-1]; last.ID != task.ID {
		t.Errorf("new task not appended last: %+v", tasks)
	}
}

func TestTaskCreateRejects(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)
	kitchen := f.kitchen(t)
	id := strconv.FormatInt(kitchen.ID, 10)
	_, garage := f.otherHousehold(t)
	garageID := strconv.FormatInt(garage.ID, 10)

	tests := []struct {
		name     string
		location string
		body     map[string]any
		want     int
	}{
		{"missing title", id, map[string]any{"frequency_hours": 24}, http.StatusBadRequest},
		{"no frequency", id, map[string]any{"title": "x"}, http.StatusBadRequest},
		{"unknown interval", id, map[string]any{"title": "x", "interval": "weekly"}, http.StatusBadRequest},
		{"frequency overflow", id, map[string]any{"title": "x", "frequency_hours": 3000000}, http.StatusBadRequest},
		{"mismatched location", id, map[string]any{"title": "x", "frequency_hours": 24, "location_id": kitchen.ID + 1}, http.StatusConflict},
		{"other household", garageID, map[string]any{"title": "x", "frequency_hours": 24}, http.StatusNotFound},
		{"unknown location", "99999", map[string]any{"title": "x", "frequency_hours": 24}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := f.tasks.ListByHousehold(f.household.ID)
			rec := httptest.NewRecorder()
			h.Create(rec, request(t, f.identity(), "POST", "/api/locations/"+tt.location+"/tasks", tt.body, "id", tt.location))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			after, _ := f.tasks.ListByHousehold(f.household.ID)
			if len(after) != len(before) {
				t.Errorf("task count changed from %d to %d", len(before), len(after))
			}
		})
	}
}

func TestTaskCompleteAndUndo(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)
	kitchen := f.kitchen(t)

	task, err := f.tasks.Create(kitchen.ID, taskRequest{
		Title:            "Take out trash",
		FrequencyHours:   24,
		TimesPerInterval: 1,
	}.input(fixedNow.Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	id := strconv.FormatInt(task.ID, 10)

	rec := httptest.NewRecorder()
	h.Complete(rec, request(t, f.identity(), "POST", "/api/tasks/"+id+"/complete",
		map[string]time.Time{"completed_at": fixedNow.Add(time.Hour)}, "id", id))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Completion model.TaskCompletion `json:"completion"`
		DueAt      time.Time            `json:"due_at"`
	}](t, rec)

	if resp.Completion.CompletedBy == nil || *resp.Completion.CompletedBy != f.user.ID {
		t.Errorf("completed_by = %v, want %d", resp.Completion.CompletedBy, f.user.ID)
	}
	// The cadence is kept: the next slot after the current due date.
	if want := fixedNow.Add(48 * time.Hour); !resp.DueAt.Equal(want) {
		t.Errorf("due_at = %v, want %v", resp.DueAt, want)
	}
	stored, _ := f.tasks.GetByID(task.ID)
	if !stored.DueAt.Equal(resp.DueAt) {
		t.Errorf("stored due_at = %v, want %v", stored.DueAt, resp.DueAt)
	}

	cid := strconv.FormatInt(resp.Completion.ID, 10)
	rec = httptest.NewRecorder()
	h.UndoComplete(rec, request(t, f.identity(), "DELETE", "/api/tasks/"+id+"/completions/"+cid, nil, "id", id, "completion_id", cid))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("undo status = %d", rec.Code)
	}
	last, _ := f.tasks.LastCompletion(task.ID)
	if last != nil {
		t.Errorf("completion still present: %+v", last)
	}
}

func TestTaskCompleteResetOnCompletion(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)

	task, err := f.tasks.Create(f.kitchen(t).ID, taskRequest{
		Title:             "Water plants",
		FrequencyHours:    72,
		TimesPerInterval:  1,
		ResetOnCompletion: true,
	}.input(fixedNow))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	id := strconv.FormatInt(task.ID, 10)

	rec := httptest.NewRecorder()
	h.Complete(rec, request(t, f.identity(), "POST", "/api/tasks/"+id+"/complete", nil, "id", id))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	stored, _ := f.tasks.GetByID(task.ID)
	if want := fixedNow.Add(72 * time.Hour); !stored.DueAt.Equal(want) {
		t.Errorf("due_at = %v, want %v", stored.DueAt, want)
	}
}

func TestTaskCompleteMonthlyLate(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)

	// Due three months before fixedNow.
	due := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	task, err := f.tasks.Create(f.kitchen(t).ID, taskRequest{
		Title:            "Descale kettle",
		Interval:         "monthly",
		TimesPerInterval: 1,
	}.input(due))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	id := strconv.FormatInt(task.ID, 10)

	rec := httptest.NewRecorder()
	h.Complete(rec, request(t, f.identity(), "POST", "/api/tasks/"+id+"/complete", nil, "id", id))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := f.tasks.GetByID(task.ID)
	if want := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC); !stored.DueAt.Equal(want) {
		t.Errorf("due_at = %v, want %v", stored.DueAt, want)
	}
}

func TestTaskCompleteFailureKeepsDueDate(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)

	tasks, _ := f.tasks.ListByLocation(f.kitchen(t).ID)
	task := tasks[0]
	id := strconv.FormatInt(task.ID, 10)

	if _, err := f.db.Exec(`CREATE TRIGGER fail_completion BEFORE INSERT ON task_completions BEGIN SELECT RAISE(ABORT, 'completion failed'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	rec := httptest.NewRecorder()
	h.Complete(rec, request(t, f.identity(), "POST", "/api/tasks/"+id+"/complete", nil, "id", id))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	stored, _ := f.tasks.GetByID(task.ID)
	if !stored.DueAt.Equal(task.DueAt) {
		t.Errorf("due_at = %v, want unchanged %v", stored.DueAt, task.DueAt)
	}
}

func TestTaskUndoWrongTask(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)

	tasks, _ := f.tasks.ListByLocation(f.kitchen(t).ID)
	c, err := f.tasks.CreateCompletion(tasks[0].ID, nil, fixedNow)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}

	other := strconv.FormatInt(tasks[1].ID, 10)
	cid := strconv.FormatInt(c.ID, 10)
	rec := httptest.NewRecorder()
	h.UndoComplete(rec, request(t, f.identity(), "DELETE", "/", nil, "id", other, "completion_id", cid))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTaskUpdateMoves(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)

	locs, _ := f.locations.ListByHousehold(f.household.ID)
	kitchen, bathroom := locs[0], locs[1]
	tasks, _ := f.tasks.ListByLocation(kitchen.ID)
	dishes := tasks[0]
	id := strconv.FormatInt(dishes.ID, 10)

	rec := httptest.NewRecorder()
	h.Update(rec, request(t, f.identity(), "PUT", "/api/tasks/"+id, map[string]any{
		"title":           "Wash hands",
		"frequency_hours": 6,
		"location_id":     bathroom.ID,
	}, "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[model.Task](t, rec)
	if got.LocationID != bathroom.ID || got.Title != "Wash hands" || got.FrequencyHours != 6 {
		t.Errorf("updated = %+v", got)
	}
	if !got.DueAt.Equal(dishes.DueAt) {
		t.Errorf("due_at changed from %v to %v", dishes.DueAt, got.DueAt)
	}

	_, garage := f.otherHousehold(t)
	rec = httptest.NewRecorder()
	h.Update(rec, request(t, f.identity(), "PUT", "/api/tasks/"+id, map[string]any{
		"title":           "Wash hands",
		"frequency_hours": 6,
		"location_id":     garage.ID,
	}, "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("move to other household status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTaskDeleteOtherHousehold(t *testing.T) {
	f := newFixture(t)
	h := newTaskHandler(f)
	_, garage := f.otherHousehold(t)

	task, err := f.tasks.Create(garage.ID, taskRequest{Title: "Sweep", FrequencyHours: 24, TimesPerInterval: 1}.input(fixedNow))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	id := strconv.FormatInt(task.ID, 10)

	rec := httptest.NewRecorder()
	h.Delete(rec, request(t, f.identity(), "DELETE", "/api/tasks/"+id, nil, "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if still, _ := f.tasks.GetByID(task.ID); still == nil {
		t.Error("task of another household was deleted")
	}
}
