package health

import (
	"math"
	"time"
)

type Color string

const (
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

// Percent reports how fresh a task is: 1 right after completion, falling
// linearly to 0 once window has elapsed.
func Percent(window time.Duration, lastCompleted, now time.Time) float64 {
	if window <= 0 {
		return 1
	}
	elapsed := now.Sub(lastCompleted)
	p := 1 - float64(elapsed)/float64(window)
	return math.Max(0, math.Min(1, p))
}

// ColorFor picks the display color for a health percentage.
func ColorFor(p float64) Color {
	switch {
	case p >= 0.6:
		return ColorGreen
	case p >= 0.3:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Status is the evaluated health of one task at a point in time.
type Status struct {
	Percent float64   `json:"percent"`
	Color   Color     `json:"color"`
	DueAt   time.Time `json:"due_at"`
	Overdue bool      `json:"overdue"`
	Decay   int       `json:"decay"`
}

// Evaluate computes a task's status. since is the last completion, or the
// creation time for a task that was never completed.
func Evaluate(f Frequency, since, due, now time.Time) Status {
	p := Percent(f.Window(since), since, now)
	return Status{
		Percent: p,
		Color:   ColorFor(p),
		DueAt:   due,
		Overdue: now.After(due),
		Decay:   f.Decay(due, now),
	}
}
