package health

import (
	"fmt"
	"strings"
	"time"
)

// Frequency schedules a repeating task.
type Frequency interface {
	// Window is the length of one interval starting at from.
	Window(from time.Time) time.Duration
	// Decay is the health lost for intervals missed since due. Once more than
	// the allowed skip intervals have passed the task stops decaying.
	Decay(due, now time.Time) int
	// NextDue is the due date after a completion at now.
	NextDue(due, now time.Time) time.Time
}

// DayAmount repeats every fixed duration.
type DayAmount struct {
	TimesPerInterval  int
	SkipIntervals     int
	ResetOnCompletion bool
	Every             time.Duration
}

func (d DayAmount) Window(time.Time) time.Duration {
	return d.Every
}

func (d DayAmount) Decay(due, now time.Time) int {
	if d.Every <= 0 || !now.After(due) {
		return 0
	}
	intervals := int(now.Sub(due) / d.Every)
	if intervals > d.SkipIntervals {
		return 0
	}
	return intervals * d.TimesPerInterval
}

// NextDue restarts the clock at now when ResetOnCompletion is set. Otherwise
// the original cadence is kept: the first slot on the schedule after now.
func (d DayAmount) NextDue(due, now time.Time) time.Time {
	if d.Every <= 0 {
		return now
	}
	if d.ResetOnCompletion {
		return now.Add(d.Every)
	}
	next := due.Add(d.Every)
	if next.After(now) {
		return next
	}
	missed := now.Sub(next)/d.Every + 1
	return next.Add(missed * d.Every)
}

type Interval int

const (
	Monthly Interval = iota
	Yearly
)

func (i Interval) String() string {
	if i == Yearly {
		return "yearly"
	}
	return "monthly"
}

// SetInterval repeats on calendar months or years.
type SetInterval struct {
	TimesPerInterval int
	SkipIntervals    int
	Interval         Interval
}

func (s SetInterval) step(t time.Time, n int) time.Time {
	if s.Interval == Yearly {
		return addMonths(t, 12*n)
	}
	return addMonths(t, n)
}

func (s SetInterval) Window(from time.Time) time.Duration {
	return s.step(from, 1).Sub(from)
}

func (s SetInterval) Decay(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	intervals := 0
	for !s.step(due, intervals+1).After(now) {
		intervals++
		if intervals > s.SkipIntervals {
			return 0
		}
	}
	return intervals * s.TimesPerInterval
}

// NextDue returns the first whole interval after due that is later than now,
// so a task completed several intervals late is not left overdue. Each
// candidate is stepped from due itself to keep the original day of month.
func (s SetInterval) NextDue(due, now time.Time) time.Time {
	n := 1
	if now.After(due) {
		months := (now.Year()-due.Year())*12 + int(now.Month()) - int(due.Month())
		if s.Interval == Yearly {
			months /= 12
		}
		if months > 1 {
			n = months - 1
		}
	}
	for !s.step(due, n).After(now) {
		n++
	}
	return s.step(due, n)
}

// addMonths adds n calendar months, clamping the day to the target month's
// last day instead of overflowing into the next month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return target.AddDate(0, 0, day-1)
}

// MaxFrequencyHours caps an hourly frequency at ten years.
const MaxFrequencyHours = 10 * 365 * 24

// Spec is the persisted description of a task's frequency.
type Spec struct {
	FrequencyHours    int
	Interval          string
	TimesPerInterval  int
	SkipIntervals     int
	ResetOnCompletion bool
}

// Parse turns a stored spec into a Frequency. An empty interval means a
// fixed number of hours.
func Parse(spec Spec) (Frequency, error) {
	times := spec.TimesPerInterval
	if times <= 0 {
		times = 1
	}
	switch strings.ToLower(strings.TrimSpace(spec.Interval)) {
	case "", "hours":
		if spec.FrequencyHours <= 0 {
			return nil, fmt.Errorf("frequency_hours must be positive, got %d", spec.FrequencyHours)
		}
		if spec.FrequencyHours > MaxFrequencyHours {
			return nil, fmt.Errorf("frequency_hours must be at most %d, got %d", MaxFrequencyHours, spec.FrequencyHours)
		}
		return DayAmount{
			TimesPerInterval:  times,
			SkipIntervals:     spec.SkipIntervals,
			ResetOnCompletion: spec.ResetOnCompletion,
			Every:             time.Duration(spec.FrequencyHours) * time.Hour,
		}, nil
	case "monthly":
		return SetInterval{TimesPerInterval: times, SkipIntervals: spec.SkipIntervals, Interval: Monthly}, nil
	case "yearly":
		return SetInterval{TimesPerInterval: times, SkipIntervals: spec.SkipIntervals, Interval: Yearly}, nil
	default:
		return nil, fmt.Errorf("unknown interval %q", spec.Interval)
	}
}
