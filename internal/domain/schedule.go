package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidSchedule is returned for malformed weekly schedules.
var ErrInvalidSchedule = errors.New("domain: invalid weekly schedule")

// ForDay returns the windows for weekday ordered by opening time.
func (s WeeklySchedule) ForDay(weekday time.Weekday) []ScheduleWindow {
	out := make([]ScheduleWindow, 0, 2)
	for _, w := range s {
		if w.Weekday == weekday {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTime.IsBefore(out[j].OpenTime)
	})
	return out
}

// Validate checks time formats, open < close and that windows of one day
// do not overlap.
func (s WeeklySchedule) Validate() error {
	for _, w := range s {
		if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday %d", ErrInvalidSchedule, w.Weekday)
		}
		if err := w.OpenTime.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		if err := w.CloseTime.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		if !w.OpenTime.IsBefore(w.CloseTime) {
			return fmt.Errorf("%w: %s opens at %s and closes at %s", ErrInvalidSchedule, w.Weekday, w.OpenTime, w.CloseTime)
		}
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		windows := s.ForDay(day)
		for i := 1; i < len(windows); i++ {
			if windows[i].OpenTime.IsBefore(windows[i-1].CloseTime) {
				return fmt.Errorf("%w: overlapping windows on %s", ErrInvalidSchedule, day)
			}
		}
	}

	return nil
}

// windowsOn materialises the day's schedule windows as absolute intervals.
func (s WeeklySchedule) windowsOn(date time.Time, loc *time.Location) []Interval {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	out := make([]Interval, 0, 2)
	for _, w := range s.ForDay(day.Weekday()) {
		open, err := w.OpenTime.On(day, loc)
		if err != nil {
			continue
		}
		closeAt, err := w.CloseTime.On(day, loc)
		if err != nil {
			continue
		}
		if !closeAt.After(open) {
			continue
		}
		out = append(out, Interval{Start: open, End: closeAt})
	}
	return out
}

// ResolveSlots generates every candidate window of the given duration on
// date. Starts advance by granularity from each window's opening time and a
// candidate may end exactly at closing time. Durations shorter than two
// granularity units yield nothing.
func (s WeeklySchedule) ResolveSlots(date time.Time, loc *time.Location, duration, granularity time.Duration) []Interval {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	if duration < MinSlotUnits*granularity {
		return nil
	}

	var out []Interval
	for _, open := range s.windowsOn(date, loc) {
		for start := open.Start; !start.Add(duration).After(open.End); start = start.Add(granularity) {
			out = append(out, Interval{Start: start, End: start.Add(duration)})
		}
	}
	return out
}

// IsCandidate reports whether window is one of the slots ResolveSlots would
// produce for its day: inside an open window and aligned to granularity.
func (s WeeklySchedule) IsCandidate(window Interval, loc *time.Location, granularity time.Duration) bool {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	if window.Duration() < MinSlotUnits*granularity {
		return false
	}
	local := window.In(loc)
	for _, open := range s.windowsOn(local.Start, loc) {
		if !open.Contains(local) {
			continue
		}
		if local.Start.Sub(open.Start)%granularity == 0 {
			return true
		}
	}
	return false
}
