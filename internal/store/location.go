package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/taskhome/internal/model"
)

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func scanLocation(scanner interface{ Scan(...any) error }) (*model.TaskLocation, error) {
	var l model.TaskLocation
	err := scanner.Scan(&l.ID, &l.HouseholdID, &l.User, &l.Name, &l.Icon, &l.SortOrder, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const locationCols = `id, household_id, user, name, icon, sort_order, created_at, updated_at`

func listLocations(db querier, householdID int64) ([]model.TaskLocation, error) {
	rows, err := db.Query(
		`SELECT `+locationCols+` FROM task_locations WHERE household_id = ? ORDER BY sort_order ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []model.TaskLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

// Create appends a location to the end of the household's list.
func (s *LocationStore) Create(householdID int64, user, name, icon string) (*model.TaskLocation, error) {
	var maxOrder int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(sort_order), -1) FROM task_locations WHERE household_id = ?`,
		householdID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO task_locations (household_id, user, name, icon, sort_order) VALUES (?, ?, ?, ?, ?)`,
		householdID, user, name, icon, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LocationStore) GetByID(id int64) (*model.TaskLocation, error) {
	row := s.db.QueryRow(`SELECT `+locationCols+` FROM task_locations WHERE id = ?`, id)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (s *LocationStore) ListByHousehold(householdID int64) ([]model.TaskLocation, error) {
	return listLocations(s.db, householdID)
}

func (s *LocationStore) Update(id int64, name, icon string) (*model.TaskLocation, error) {
	_, err := s.db.Exec(
		`UPDATE task_locations SET name = ?, icon = ? WHERE id = ?`,
		name, icon, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return s.GetByID(id)
}

func (s *LocationStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

// Reorder sets the sort order of the household's locations to the order of
// ids. IDs belonging to another household are ignored.
func (s *LocationStore) Reorder(householdID int64, ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.Exec(
			`UPDATE task_locations SET sort_order = ? WHERE id = ? AND household_id = ?`,
			i, id, householdID,
		); err != nil {
			return fmt.Errorf("update sort order: %w", err)
		}
	}
	return tx.Commit()
}
