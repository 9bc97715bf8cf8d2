// Package api declares HTTP contracts and route registration helpers.
package api

import "time"

// This file contains common types and utilities for the API package.
// Most utility functions are defined in http.go to avoid circular dependencies.

// timeFormat is the wire format for timestamps.
const timeFormat = time.RFC3339

// toWeekdays converts wire integers (0 Sunday .. 6 Saturday) to weekdays.
func toWeekdays(days []int) []time.Weekday {
	if days == nil {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}

// fromWeekdays converts weekdays back to their wire integers.
func fromWeekdays(days []time.Weekday) []int {
	if days == nil {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}
