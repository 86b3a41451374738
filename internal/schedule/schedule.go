// Package schedule computes watering reminder instants and their human-facing descriptions.
// Everything here is pure time arithmetic: no storage, no clocks.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abelzeko/plant-manager/internal/entities"
)

// ErrInvalidFrequency is returned for frequencies that cannot produce a positive interval
var ErrInvalidFrequency = errors.New("invalid watering frequency")

// Unit is a calendar unit a watering frequency repeats over
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
)

// spanDays is the length of a unit when it has to be subdivided
var spanDays = map[Unit]int{
	Day:   1,
	Week:  7,
	Month: 30,
}

// ParseUnit normalises a repeat_every value ("Week", "days", ...) into a Unit
func ParseUnit(s string) (Unit, error) {
	u := strings.ToLower(strings.TrimSpace(s))
	u = strings.TrimSuffix(u, "s")
	if _, ok := spanDays[Unit(u)]; !ok {
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidFrequency, s)
	}
	return Unit(u), nil
}

// Validate checks that a frequency can be scheduled
func Validate(freq entities.Frequency) error {
	_, _, err := interval(freq)
	return err
}

// NextNotification returns the instant of the next watering reminder after from.
//
// A single repetition adds one calendar unit, so 1 time per week lands exactly seven
// calendar days later. More repetitions split the unit: whole days when the split is at
// least a day long (2 per week is every 4 days), whole hours otherwise (3 per day is
// every 8 hours).
func NextNotification(freq entities.Frequency, from time.Time) (time.Time, error) {
	unit, step, err := interval(freq)
	if err != nil {
		return time.Time{}, err
	}

	if step == 0 {
		switch unit {
		case Day:
			return from.AddDate(0, 0, 1), nil
		case Week:
			return from.AddDate(0, 0, 7), nil
		default:
			return from.AddDate(0, 1, 0), nil
		}
	}

	if step%(24*time.Hour) == 0 {
		return from.AddDate(0, 0, int(step/(24*time.Hour))), nil
	}
	return from.Add(step), nil
}

// interval resolves a frequency into its unit and, for subdivided units, the rounded step.
// A zero step means "one whole calendar unit".
func interval(freq entities.Frequency) (Unit, time.Duration, error) {
	if freq.Times <= 0 {
		return "", 0, fmt.Errorf("%w: times must be positive, got %d", ErrInvalidFrequency, freq.Times)
	}
	unit, err := ParseUnit(freq.RepeatEvery)
	if err != nil {
		return "", 0, err
	}
	if freq.Times == 1 {
		return unit, 0, nil
	}

	days := spanDays[unit]
	if freq.Times > days*24 {
		return "", 0, fmt.Errorf("%w: %d times per %s is more often than hourly", ErrInvalidFrequency, freq.Times, unit)
	}

	perTime := float64(days) / float64(freq.Times)
	if perTime >= 1 {
		return unit, time.Duration(math.Round(perTime)) * 24 * time.Hour, nil
	}
	hours := math.Round(perTime * 24)
	if hours < 1 {
		hours = 1
	}
	return unit, time.Duration(hours) * time.Hour, nil
}
