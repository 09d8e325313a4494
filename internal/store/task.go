package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/taskhome/internal/model"
)

// ErrTaskNotFound is returned by writes that target a missing task.
var ErrTaskNotFound = errors.New("task not found")

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Title             string
	Details           string
	Icon              string
	FrequencyHours    int
	Interval          string
	TimesPerInterval  int
	SkipIntervals     int
	ResetOnCompletion bool
	DueAt             time.Time
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(
		&t.ID, &t.LocationID, &t.Title, &t.Details, &t.Icon,
		&t.FrequencyHours, &t.Interval, &t.TimesPerInterval, &t.SkipIntervals, &t.ResetOnCompletion,
		&t.DueAt, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, location_id, title, details, icon, frequency_hours, interval, times_per_interval, skip_intervals, reset_on_completion, due_at, sort_order, created_at, updated_at`

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func listTasksByHousehold(db querier, householdID int64) ([]model.Task, error) {
	rows, err := db.Query(
		`SELECT t.id, t.location_id, t.title, t.details, t.icon, t.frequency_hours, t.interval,
		        t.times_per_interval, t.skip_intervals, t.reset_on_completion, t.due_at, t.sort_order,
		        t.created_at, t.updated_at
		 FROM tasks t
		 JOIN task_locations l ON l.id = t.location_id
		 WHERE l.household_id = ?
		 ORDER BY l.sort_order ASC, l.id ASC, t.sort_order ASC, t.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by household: %w", err)
	}
	return collectTasks(rows)
}

// Create appends a task to the end of the location's list.
func (s *TaskStore) Create(locationID int64, in TaskInput) (*model.Task, error) {
	var maxOrder int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(sort_order), -1) FROM tasks WHERE location_id = ?`,
		locationID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (location_id, title, details, icon, frequency_hours, interval, times_per_interval, skip_intervals, reset_on_completion, due_at, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		locationID, in.Title, in.Details, in.Icon, in.FrequencyHours, in.Interval,
		in.TimesPerInterval, in.SkipIntervals, in.ResetOnCompletion, in.DueAt.UTC(), maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByLocation(locationID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE location_id = ? ORDER BY sort_order ASC, id ASC`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by location: %w", err)
	}
	return collectTasks(rows)
}

func (s *TaskStore) ListByHousehold(householdID int64) ([]model.Task, error) {
	return listTasksByHousehold(s.db, householdID)
}

// Update applies in to the task and, when locationID differs from its
// current location, moves it there placed last. Both happen in one
// transaction.
func (s *TaskStore) Update(id, locationID int64, in TaskInput) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRow(`SELECT location_id FROM tasks WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task location: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE tasks SET title = ?, details = ?, icon = ?, frequency_hours = ?, interval = ?,
		 times_per_interval = ?, skip_intervals = ?, reset_on_completion = ?, due_at = ? WHERE id = ?`,
		in.Title, in.Details, in.Icon, in.FrequencyHours, in.Interval,
		in.TimesPerInterval, in.SkipIntervals, in.ResetOnCompletion, in.DueAt.UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if locationID != current {
		if _, err := tx.Exec(
			`UPDATE tasks SET location_id = ?,
			 sort_order = (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM tasks WHERE location_id = ?)
			 WHERE id = ?`,
			locationID, locationID, id,
		); err != nil {
			return nil, fmt.Errorf("move task: %w", err)
		}
	}

	t, err := scanTask(tx.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.TaskCompletion, error) {
	var c model.TaskCompletion
	var completedBy sql.NullInt64

	err := scanner.Scan(&c.ID, &c.TaskID, &completedBy, &c.CompletedAt)
	if err != nil {
		return nil, err
	}

	if completedBy.Valid {
		c.CompletedBy = &completedBy.Int64
	}
	return &c, nil
}

const completionCols = `id, task_id, completed_by, completed_at`

func (s *TaskStore) CreateCompletion(taskID int64, completedBy *int64, at time.Time) (*model.TaskCompletion, error) {
	return insertCompletion(s.db, taskID, completedBy, at)
}

func insertCompletion(q querier, taskID int64, completedBy *int64, at time.Time) (*model.TaskCompletion, error) {
	var cBy sql.NullInt64
	if completedBy != nil {
		cBy = sql.NullInt64{Int64: *completedBy, Valid: true}
	}

	result, err := q.Exec(
		`INSERT INTO task_completions (task_id, completed_by, completed_at) VALUES (?, ?, ?)`,
		taskID, cBy, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := q.QueryRow(`SELECT `+completionCols+` FROM task_completions WHERE id = ?`, id)
	return scanCompletion(row)
}

// Complete records a completion and sets the task's next due date in one
// transaction.
func (s *TaskStore) Complete(taskID int64, completedBy *int64, at, dueAt time.Time) (*model.TaskCompletion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE tasks SET due_at = ? WHERE id = ?`, dueAt.UTC(), taskID)
	if err != nil {
		return nil, fmt.Errorf("set due_at: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, ErrTaskNotFound
	}

	c, err := insertCompletion(tx, taskID, completedBy, at)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

func (s *TaskStore) GetCompletion(id int64) (*model.TaskCompletion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM task_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *TaskStore) DeleteCompletion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

func (s *TaskStore) ListCompletions(taskID int64) ([]model.TaskCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM task_completions WHERE task_id = ? ORDER BY completed_at DESC, id DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.TaskCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *TaskStore) LastCompletion(taskID int64) (*model.TaskCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM task_completions WHERE task_id = ? ORDER BY completed_at DESC, id DESC LIMIT 1`,
		taskID,
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completion: %w", err)
	}
	return c, nil
}

// LastCompletionsByHousehold maps each task in the household to the time it
// was last completed. Tasks never completed are absent.
func (s *TaskStore) LastCompletionsByHousehold(householdID int64) (map[int64]time.Time, error) {
	rows, err := s.db.Query(
		`SELECT c.task_id, c.completed_at
		 FROM task_completions c
		 JOIN tasks t ON t.id = c.task_id
		 JOIN task_locations l ON l.id = t.location_id
		 WHERE l.household_id = ?
		 ORDER BY c.completed_at ASC, c.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list last completions: %w", err)
	}
	defer rows.Close()

	last := make(map[int64]time.Time)
	for rows.Next() {
		var taskID int64
		var at time.Time
		if err := rows.Scan(&taskID, &at); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		last[taskID] = at
	}
	return last, rows.Err()
}
