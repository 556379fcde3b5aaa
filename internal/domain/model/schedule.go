package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DaySchedule holds one weekday's opening hours as "HH:MM" strings.
// Open and Close are not evaluated when IsClosed is set.
type DaySchedule struct {
	Open     string `json:"open,omitempty" yaml:"open"`
	Close    string `json:"close,omitempty" yaml:"close"`
	IsClosed bool   `json:"is_closed" yaml:"is_closed"`
}

// WeeklySchedule maps every weekday to its opening hours.
type WeeklySchedule map[time.Weekday]DaySchedule

const daysPerWeek = 7

// Day returns the entry for d and whether it exists.
func (s WeeklySchedule) Day(d time.Weekday) (DaySchedule, bool) {
	if s == nil {
		return DaySchedule{}, false
	}
	ds, ok := s[d]
	return ds, ok
}

// Validate requires exactly seven weekday entries and well-formed times on open days.
func (s WeeklySchedule) Validate() error {
	if len(s) != daysPerWeek {
		return fmt.Errorf("%w: want %d days, got %d", ErrInvalidSchedule, daysPerWeek, len(s))
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		ds, ok := s[d]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidSchedule, d)
		}
		if ds.IsClosed {
			continue
		}
		if _, err := time.Parse("15:04", ds.Open); err != nil {
			return fmt.Errorf("%w: %s open %q", ErrInvalidSchedule, d, ds.Open)
		}
		if _, err := time.Parse("15:04", ds.Close); err != nil {
			return fmt.Errorf("%w: %s close %q", ErrInvalidSchedule, d, ds.Close)
		}
	}
	return nil
}

// ParseWeekday maps English day names ("monday", case-insensitive) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return 0, false
}

// ScheduleFromNames builds a WeeklySchedule from entries keyed by day name.
func ScheduleFromNames(days map[string]DaySchedule) (WeeklySchedule, error) {
	s := make(WeeklySchedule, len(days))
	for name, ds := range days {
		d, ok := ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidSchedule, name)
		}
		s[d] = ds
	}
	return s, nil
}

// Names returns the schedule keyed by lowercase day name.
func (s WeeklySchedule) Names() map[string]DaySchedule {
	out := make(map[string]DaySchedule, len(s))
	for d, ds := range s {
		out[strings.ToLower(d.String())] = ds
	}
	return out
}

// MarshalJSON encodes the schedule keyed by lowercase day name.
func (s WeeklySchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a schedule keyed by day name.
func (s *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var raw map[string]DaySchedule
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ScheduleFromNames(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
