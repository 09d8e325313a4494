package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/taskhome/internal/household"
	"github.com/dukerupert/taskhome/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	var owner sql.NullInt64
	err := scanner.Scan(&h.ID, &h.Name, &owner, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		h.OwnerUserID = &owner.Int64
	}
	return &h, nil
}

func scanHouseholdMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, owner_user_id, created_at, updated_at`
const householdMemberCols = `id, household_id, user_id, role, created_at, updated_at`

// Create inserts a household and makes ownerID its admin.
func (s *HouseholdStore) Create(name string, ownerID int64) (*model.Household, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := insertHousehold(tx, name, ownerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func insertHousehold(q querier, name string, ownerID int64) (int64, error) {
	result, err := q.Exec(`INSERT INTO households (name, owner_user_id) VALUES (?, ?)`, name, ownerID)
	if err != nil {
		return 0, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	if _, err := q.Exec(
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		id, ownerID, model.RoleAdmin,
	); err != nil {
		return 0, fmt.Errorf("add owner: %w", err)
	}
	return id, nil
}

// Registration is everything Register creates for a new account.
type Registration struct {
	User      *model.User
	Household *model.Household
	Session   *model.Session
}

// Register creates a user, their own household seeded with the default
// locations and a first session, all in one transaction. A taken username
// returns ErrUsernameTaken and leaves nothing behind.
func (s *HouseholdStore) Register(username, name, password string) (*Registration, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	userID, err := insertUser(tx, username, name, password)
	if err != nil {
		return nil, err
	}
	householdID, err := insertHousehold(tx, fmt.Sprintf("%s's Household", name), userID)
	if err != nil {
		return nil, err
	}
	if err := seedDefaults(tx, householdID, strings.TrimSpace(username)); err != nil {
		return nil, err
	}
	sess, err := insertSession(tx, userID, householdID)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(tx.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, userID))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	hh, err := scanHousehold(tx.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, householdID))
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &Registration{User: user, Household: hh, Session: sess}, nil
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(id int64, name string) (*model.Household, error) {
	_, err := s.db.Exec(`UPDATE households SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) AddMember(householdID, userID int64, role string) (*model.HouseholdMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		householdID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+householdMemberCols+` FROM household_members WHERE id = ?`, id)
	return scanHouseholdMember(row)
}

func (s *HouseholdStore) RemoveMember(householdID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *HouseholdStore) GetMember(householdID, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) ListMembers(householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? ORDER BY created_at ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanHouseholdMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) ListForUser(userID int64) ([]model.Household, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.owner_user_id, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

type seedTask struct {
	title string
	icon  string
	hours int
}

var defaultLocations = []struct {
	name  string
	icon  string
	tasks []seedTask
}{
	{"Kitchen", "silverware-fork-knife", []seedTask{
		{"Wash dishes", "dishwasher", 12},
		{"Wipe counters", "spray-bottle", 24},
		{"Mop floor", "broom", 168},
	}},
	{"Bathroom", "shower", []seedTask{
		{"Scrub toilet", "toilet", 168},
		{"Clean mirror", "mirror-rectangle", 168},
	}},
	{"Living Room", "sofa", []seedTask{
		{"Vacuum carpet", "vacuum", 72},
		{"Dust shelves", "bookshelf", 168},
	}},
	{"Bedroom", "bed", []seedTask{
		{"Make bed", "bed-outline", 24},
		{"Organize closet", "wardrobe-outline", 336},
	}},
}

// SeedDefaults inserts the default locations and their starter tasks for a
// new household in a single transaction.
func (s *HouseholdStore) SeedDefaults(householdID int64, user string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := seedDefaults(tx, householdID, user); err != nil {
		return err
	}
	return tx.Commit()
}

func seedDefaults(q querier, householdID int64, user string) error {
	now := time.Now().UTC()
	for i, loc := range defaultLocations {
		result, err := q.Exec(
			`INSERT INTO task_locations (household_id, user, name, icon, sort_order) VALUES (?, ?, ?, ?, ?)`,
			householdID, user, loc.name, loc.icon, i,
		)
		if err != nil {
			return fmt.Errorf("seed location %q: %w", loc.name, err)
		}
		locationID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for j, t := range loc.tasks {
			if _, err := q.Exec(
				`INSERT INTO tasks (location_id, title, icon, frequency_hours, due_at, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
				locationID, t.title, t.icon, t.hours, now.Add(time.Duration(t.hours)*time.Hour), j,
			); err != nil {
				return fmt.Errorf("seed task %q: %w", t.title, err)
			}
		}
	}
	return nil
}

// Graph is a household's domain graph together with the rows it was built
// from. Every row in Locations and Tasks has a node in Root.
type Graph struct {
	Root      *household.Household
	Household model.Household
	Locations []model.TaskLocation
	Tasks     []model.Task
}

// Location returns the graph node for a location row, or nil.
func (g *Graph) Location(id int64) *household.TaskLocation {
	for _, l := range g.Root.Locations() {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// LoadGraph rebuilds the household's location and task graph, registering
// every row through the domain's guarded add operations. A row whose parent
// does not match fails the load with household.ErrInvariantViolation. All
// rows are read in one transaction.
func (s *HouseholdStore) LoadGraph(id int64) (*Graph, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	hh, err := scanHousehold(tx.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load household: %w", err)
	}
	var user string
	if hh.OwnerUserID != nil {
		err := tx.QueryRow(`SELECT username FROM users WHERE id = ?`, *hh.OwnerUserID).Scan(&user)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("load owner: %w", err)
		}
	}

	locations, err := listLocations(tx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := listTasksByHousehold(tx, id)
	if err != nil {
		return nil, err
	}

	reg := household.NewRegistry()
	root := household.New(id, user)
	if err := reg.Put(root); err != nil {
		return nil, fmt.Errorf("load household: %w", err)
	}
	for _, l := range locations {
		if err := reg.AddTaskLocation(id, household.NewTaskLocation(l.ID, l.User, l.Name, l.HouseholdID)); err != nil {
			return nil, fmt.Errorf("load location %d: %w", l.ID, err)
		}
	}
	for _, t := range tasks {
		if err := reg.AddTask(t.LocationID, &household.Task{ID: t.ID, Title: t.Title, LocationID: t.LocationID}); err != nil {
			return nil, fmt.Errorf("load task %d: %w", t.ID, err)
		}
	}
	return &Graph{Root: root, Household: *hh, Locations: locations, Tasks: tasks}, nil
}
