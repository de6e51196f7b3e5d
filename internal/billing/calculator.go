// Package billing predicts the charges the rating engine is expected to
// apply for a call, so the harness can assert final balances.
package billing

import (
	"errors"
	"fmt"
	"time"
)

// ErrEndBeforeStart is returned when a call would have negative duration.
var ErrEndBeforeStart = errors.New("call end precedes call start")

// InvalidTimestampError reports a call timestamp that could not be parsed.
type InvalidTimestampError struct {
	Value string
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid call timestamp %q: %v", e.Value, e.Err)
}

func (e *InvalidTimestampError) Unwrap() error {
	return e.Err
}

// CDR timestamps come without a zone; RFC 3339 is accepted as well.
const timestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an ISO-8601 call timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(timestampLayout, value); err == nil {
		return ts, nil
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &InvalidTimestampError{Value: value, Err: err}
	}
	return ts, nil
}

// BilledMinutes converts a call's start and end timestamps into the number
// of billable units: every started minute counts as a whole one. A
// zero-duration call bills zero minutes.
func BilledMinutes(callStart, callEnd string) (int64, error) {
	start, err := ParseTimestamp(callStart)
	if err != nil {
		return 0, err
	}

	end, err := ParseTimestamp(callEnd)
	if err != nil {
		return 0, err
	}

	duration := end.Sub(start)
	if duration < 0 {
		return 0, ErrEndBeforeStart
	}

	minutes := int64(duration / time.Minute)
	if duration%time.Minute != 0 {
		minutes++
	}
	return minutes, nil
}
