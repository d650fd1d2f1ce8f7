package utils // package utils provides small helpers shared across the service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// clockPattern matches 24-hour wall-clock values in "HH:MM" form.  A
// single-digit hour ("9:30") is accepted; minutes must always be two
// digits.  Values such as "24:00" or "18:60" are rejected.
var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// FormatError reports a clock string that does not match "HH:MM".  It is
// returned by ParseClock and is treated by the validator as a plain
// validation failure.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: expected HH:MM", e.Value)
}

// ParseClock converts an "HH:MM" string into minutes since midnight.
// Bookings compare their slots in this unit so that string formatting
// quirks (zero padding, single-digit hours) cannot affect ordering.
func ParseClock(s string) (int, error) {
	if !clockPattern.MatchString(s) {
		return 0, &FormatError{Value: s}
	}
	parts := strings.SplitN(s, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as a zero-padded "HH:MM"
// string.  It is the inverse of ParseClock for canonical input and is
// used to normalize times before they are persisted.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// RangesOverlap reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect.  A booking ending exactly when another starts
// does not conflict.  Arguments are minutes since midnight on the same
// calendar day; cross-midnight ranges are not supported and must be
// rejected before this point.
func RangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
