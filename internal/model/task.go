package model

import "time"

type TaskLocation struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	User        string    `json:"user"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Task struct {
	ID                int64     `json:"id"`
	LocationID        int64     `json:"location_id"`
	Title             string    `json:"title"`
	Details           string    `json:"details"`
	Icon              string    `json:"icon"`
	FrequencyHours    int       `json:"frequency_hours"`
	Interval          string    `json:"interval"`
	TimesPerInterval  int       `json:"times_per_interval"`
	SkipIntervals     int       `json:"skip_intervals"`
	ResetOnCompletion bool      `json:"reset_on_completion"`
	DueAt             time.Time `json:"due_at"`
	SortOrder         int       `json:"sort_order"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type TaskCompletion struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	CompletedBy *int64    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}
