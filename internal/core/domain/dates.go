package domain

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// dateInterval is a fully-expanded [start, end] day interval.
type dateInterval struct {
	start string
	end   string
}

// intervalCache memoises ParseInterval results. The domain of date strings
// is tiny (the same dates repeat across every observation of a series), so
// an unbounded locked map stays small in practice.
var intervalCache sync.Map // string -> dateInterval

// ParseInterval converts a partial date string (YYYY, YYYY-MM, or
// YYYY-MM-DD) into the full calendar interval it covers, as a pair of
// zero-padded YYYY-MM-DD strings. A full date maps to itself on both ends.
//
// Returns ErrInvalidDateFormat for a wrong component count, non-numeric
// components, or an out-of-range month or day.
func ParseInterval(dateStr string) (string, string, error) {
	if cached, ok := intervalCache.Load(dateStr); ok {
		iv := cached.(dateInterval)
		return iv.start, iv.end, nil
	}

	start, end, err := parseInterval(dateStr)
	if err != nil {
		return "", "", err
	}

	intervalCache.Store(dateStr, dateInterval{start: start, end: end})
	return start, end, nil
}

func parseInterval(dateStr string) (string, string, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) < 1 || len(parts) > 3 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateStr)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateStr)
	}

	if len(parts) == 1 { // YYYY
		return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year), nil
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateStr)
	}

	if len(parts) == 2 { // YYYY-MM
		lastDay := daysInMonth(year, month)
		return fmt.Sprintf("%04d-%02d-01", year, month),
			fmt.Sprintf("%04d-%02d-%02d", year, month, lastDay), nil
	}

	day, err := strconv.Atoi(parts[2]) // YYYY-MM-DD
	if err != nil || day < 1 || day > daysInMonth(year, month) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateStr)
	}

	fullDate := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	return fullDate, fullDate, nil
}

// daysInMonth returns the last day of the given month, leap years included.
func daysInMonth(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateRange is a date filter normalized to the union-maximal interval
// implied by its partial-date endpoints ("2022" becomes 2022-01-01 to
// 2022-12-31). Construct with NewDateRange; both fields are full
// YYYY-MM-DD strings afterwards, so lexicographic comparison is valid.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// NewDateRange builds a normalized DateRange from two partial date strings.
// The start expands to the beginning of its interval and the end to the end
// of its interval. Returns ErrInvalidDateRange when the normalized start
// falls after the normalized end.
func NewDateRange(startDate, endDate string) (DateRange, error) {
	rangeStart, _, err := ParseInterval(startDate)
	if err != nil {
		return DateRange{}, err
	}
	_, rangeEnd, err := ParseInterval(endDate)
	if err != nil {
		return DateRange{}, err
	}

	if rangeStart > rangeEnd {
		return DateRange{}, fmt.Errorf("%w: start_date %q cannot be after end_date %q",
			ErrInvalidDateRange, startDate, endDate)
	}
	return DateRange{StartDate: rangeStart, EndDate: rangeEnd}, nil
}

// Contains reports whether the given interval is fully contained in the range.
func (r DateRange) Contains(start, end string) bool {
	return r.StartDate <= start && end <= r.EndDate
}

// FilterByDate retains exactly those observations whose own parsed interval
// is fully contained in the filter's interval, preserving order. A nil
// filter returns a shallow copy of the input: callers reuse the original
// list for alternative-source metadata, so it is never mutated or aliased.
func FilterByDate(observations []Observation, filter *DateRange) ([]Observation, error) {
	if filter == nil {
		out := make([]Observation, len(observations))
		copy(out, observations)
		return out, nil
	}

	var filtered []Observation
	for _, obs := range observations {
		obsStart, obsEnd, err := ParseInterval(obs.Date)
		if err != nil {
			return nil, err
		}
		if filter.Contains(obsStart, obsEnd) {
			filtered = append(filtered, obs)
		}
	}
	return filtered, nil
}
