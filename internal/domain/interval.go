package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when an interval does not end after it starts.
var ErrInvalidInterval = errors.New("domain: interval end must be after start")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates that start < end.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// IntervalOf builds [start, start+d).
func IntervalOf(start time.Time, d time.Duration) (Interval, error) {
	return NewInterval(start, start.Add(d))
}

// Overlaps reports a1 < b2 && a2 > b1. Touching intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Contains reports whether other lies entirely within i.
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) IsZero() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

// In converts both bounds to loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// DayInterval returns the whole calendar day of date in loc.
func DayInterval(date time.Time, loc *time.Location) Interval {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}
