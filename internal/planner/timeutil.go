package planner

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ErrInvalidConfiguration is returned when a schedule config cannot be used,
// e.g. a start time that is not a valid HH:MM clock string.
var ErrInvalidConfiguration = fmt.Errorf("invalid planner configuration")

// ParseClock parses an HH:MM wall-clock string into minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrInvalidConfiguration, clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrInvalidConfiguration, clock)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrInvalidConfiguration, clock)
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: clock time %q out of range", ErrInvalidConfiguration, clock)
	}
	return hours*60 + mins, nil
}

// FormatClock formats minutes since midnight as HH:MM, wrapping modulo 24h.
// The running cursor a plan accumulates is not wrapped, so a plan that runs
// past midnight keeps monotonic internal accounting while each block still
// shows a correct wall-clock time.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
