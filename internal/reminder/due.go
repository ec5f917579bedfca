// Package reminder keeps reminders created by voice commands and announces
// them when they fall due.
package reminder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoSchedule is returned when neither a time nor a date was given.
	ErrNoSchedule = errors.New("reminder has no time or date")
	// ErrInvalidTime is returned for time phrases that cannot be understood.
	ErrInvalidTime = errors.New("invalid reminder time")
)

// Default times of day used when only a date is known.
const (
	DefaultHour = 9
	TonightHour = 20
)

var (
	relativeTime = regexp.MustCompile(`^in\s+(\d+)\s*(minute|hour|day)s?$`)
	clockTime    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveDue turns the time and date phrases of a reminder command into an
// absolute due time relative to now. Accepted times are "in 10 minutes",
// "6pm", "6:30pm" and 24-hour "18:30"; dates are today, tonight, tomorrow or
// a weekday. A clock time that has already passed today moves to tomorrow.
func ResolveDue(now time.Time, when, date string) (time.Time, error) {
	when = strings.ToLower(strings.TrimSpace(when))
	date = strings.ToLower(strings.TrimSpace(date))
	if when == "" && date == "" {
		return time.Time{}, ErrNoSchedule
	}

	if m := relativeTime.FindStringSubmatch(when); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, when)
		}
		switch m[2] {
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), nil
		default:
			return now.AddDate(0, 0, n), nil
		}
	}

	hour, minute := DefaultHour, 0
	if date == "tonight" {
		hour = TonightHour
	}
	if when != "" {
		var err error
		hour, minute, err = parseClock(when, date == "tonight")
		if err != nil {
			return time.Time{}, err
		}
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	switch date {
	case "", "today", "tonight":
		if date == "" && !day.After(now) {
			day = day.AddDate(0, 0, 1)
		}
	case "tomorrow":
		day = day.AddDate(0, 0, 1)
	default:
		wd, ok := weekdays[date]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: unknown date %q", ErrInvalidTime, date)
		}
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 && !day.After(now) {
			ahead = 7
		}
		day = day.AddDate(0, 0, ahead)
	}
	return day, nil
}

// parseClock reads "6pm", "6:30pm" or "18:30". Without a suffix the hour is
// taken as 24-hour time, except in the evening when small hours mean pm.
func parseClock(s string, evening bool) (hour, minute int, err error) {
	m := clockTime.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	switch m[3] {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		hour %= 12
		if m[3] == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		if evening && hour < 12 {
			hour += 12
		}
	}
	return hour, minute, nil
}
