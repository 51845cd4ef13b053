package domain

import (
	"math"
	"time"

	"github.com/flowdeckapp/flowdeck-server/internal/errors"
)

// RoundingOption controls how tracked seconds convert to billable hours.
type RoundingOption string

const (
	// RoundingNone bills exact fractional hours.
	RoundingNone RoundingOption = "none"
	// RoundingUp bills whole hours, rounded up.
	RoundingUp RoundingOption = "up"
	// RoundingDown bills whole hours, rounded down.
	RoundingDown RoundingOption = "down"
)

// Valid returns true for a recognized rounding option.
func (r RoundingOption) Valid() bool {
	switch r {
	case RoundingNone, RoundingUp, RoundingDown:
		return true
	}
	return false
}

// TimeEntry is one closed start/stop interval.
type TimeEntry struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int64     `json:"duration"` // seconds
}

// TimeTracking is the per-task timer state machine.
//
// States: Idle (IsRunning=false, CurrentStartTime=nil) and Running
// (IsRunning=true, CurrentStartTime and StartedBy set). Invariant: IsRunning
// is true exactly when both CurrentStartTime and StartedBy are set. At most
// one actor may hold the running timer; starting is exclusive, stopping is
// not.
type TimeTracking struct {
	TotalSeconds     int64          `json:"total_seconds"`
	IsRunning        bool           `json:"is_running"`
	CurrentStartTime *time.Time     `json:"current_start_time,omitempty"`
	StartedBy        string         `json:"started_by,omitempty"`
	HourlyRate       float64        `json:"hourly_rate"`
	Rounding         RoundingOption `json:"rounding"`
	Entries          []TimeEntry    `json:"entries"`
}

// NewTimeTracking returns an idle tracker with default settings.
func NewTimeTracking() *TimeTracking {
	return &TimeTracking{
		Rounding: RoundingNone,
		Entries:  []TimeEntry{},
	}
}

// Start transitions Idle -> Running, recording the actor.
// Returns a conflict error if a timer is already running, regardless of actor.
func (t *TimeTracking) Start(actorID string, now time.Time) error {
	if t.IsRunning {
		return errors.Conflictf("timer already running, started by %s", t.StartedBy)
	}
	start := now
	t.IsRunning = true
	t.CurrentStartTime = &start
	t.StartedBy = actorID
	return nil
}

// Stop transitions Running -> Idle, closing the interval into an entry and
// folding its duration into TotalSeconds. Any actor may stop a running timer.
// The entryID is assigned by the caller so ids stay store-controlled.
func (t *TimeTracking) Stop(entryID string, now time.Time) (*TimeEntry, error) {
	if !t.IsRunning || t.CurrentStartTime == nil {
		return nil, errors.Conflict("timer is not running")
	}

	// Clock skew between collaborating clients can make the interval appear
	// negative; clamp to zero.
	duration := int64(now.Sub(*t.CurrentStartTime).Seconds())
	if duration < 0 {
		duration = 0
	}

	entry := TimeEntry{
		ID:        entryID,
		StartTime: *t.CurrentStartTime,
		EndTime:   now,
		Duration:  duration,
	}

	t.Entries = append(t.Entries, entry)
	t.TotalSeconds += duration
	t.IsRunning = false
	t.CurrentStartTime = nil
	t.StartedBy = ""

	return &entry, nil
}

// Reset clears accumulated time and entries.
// Returns a conflict error while the timer is running; it must be stopped first.
func (t *TimeTracking) Reset() error {
	if t.IsRunning {
		return errors.Conflict("cannot reset a running timer")
	}
	t.TotalSeconds = 0
	t.Entries = []TimeEntry{}
	return nil
}

// UpdateSettings applies rate and rounding changes. Allowed in any state.
func (t *TimeTracking) UpdateSettings(hourlyRate *float64, rounding *RoundingOption) error {
	if hourlyRate != nil {
		if *hourlyRate < 0 {
			return errors.Validation("hourly rate cannot be negative")
		}
		t.HourlyRate = *hourlyRate
	}
	if rounding != nil {
		if !rounding.Valid() {
			return errors.Validationf("invalid rounding option: %s", *rounding)
		}
		t.Rounding = *rounding
	}
	return nil
}

// EffectiveSeconds returns accumulated seconds plus the in-flight interval of
// a running timer. In-flight seconds count toward billing even though they
// are not yet persisted as a closed entry.
func (t *TimeTracking) EffectiveSeconds(now time.Time) int64 {
	total := t.TotalSeconds
	if t.IsRunning && t.CurrentStartTime != nil {
		inFlight := int64(now.Sub(*t.CurrentStartTime).Seconds())
		if inFlight > 0 {
			total += inFlight
		}
	}
	return total
}

// BillableHours converts effective seconds to hours under the rounding policy.
func (t *TimeTracking) BillableHours(now time.Time) float64 {
	hours := float64(t.EffectiveSeconds(now)) / 3600.0
	switch t.Rounding {
	case RoundingUp:
		return math.Ceil(hours)
	case RoundingDown:
		return math.Floor(hours)
	default:
		return hours
	}
}

// Price returns billable hours times the hourly rate.
func (t *TimeTracking) Price(now time.Time) float64 {
	return t.BillableHours(now) * t.HourlyRate
}
