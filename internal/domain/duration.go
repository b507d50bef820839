package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a validated ISO 8601 duration value object (e.g. "PT1H30M").
// Only the time designators H, M and S are accepted.
type Duration struct {
	value time.Duration
}

// NewDuration parses an ISO 8601 time duration such as "PT2H" or "PT1H30M15S".
func NewDuration(s string) (Duration, error) {
	if s == "" {
		return Duration{}, ErrDurationEmpty
	}

	rest, ok := strings.CutPrefix(s, "PT")
	if !ok {
		return Duration{}, fmt.Errorf("%w: %q must start with PT", ErrInvalidDurationFormat, s)
	}
	if rest == "" {
		return Duration{}, fmt.Errorf("%w: %q has no components", ErrInvalidDurationFormat, s)
	}

	units := map[byte]time.Duration{'H': time.Hour, 'M': time.Minute, 'S': time.Second}
	order := "HMS"
	var total time.Duration

	for rest != "" {
		i := strings.IndexAny(rest, order)
		if i <= 0 {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, s)
		}
		unit := rest[i]
		n, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil || n < 0 {
			return Duration{}, fmt.Errorf("%w: bad number %q", ErrInvalidDurationFormat, rest[:i])
		}
		total += time.Duration(n * float64(units[unit]))

		// Components must appear once each, in H, M, S order.
		order = order[strings.IndexByte(order, unit)+1:]
		rest = rest[i+1:]
		if rest != "" && order == "" {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, s)
		}
	}

	return Duration{value: total}, nil
}

// Value returns the underlying time.Duration.
func (d Duration) Value() time.Duration {
	return d.value
}

// String returns the ISO 8601 representation of the duration.
func (d Duration) String() string {
	return FormatDurationISO8601(d.value)
}

// FormatDurationISO8601 converts a time.Duration to ISO 8601 format (e.g., "PT1H30M").
// Sub-second precision is dropped.
func FormatDurationISO8601(d time.Duration) string {
	if d < time.Second {
		return "PT0S"
	}

	var b strings.Builder
	b.WriteString("PT")
	if h := d / time.Hour; h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m := (d % time.Hour) / time.Minute; m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if s := (d % time.Minute) / time.Second; s > 0 {
		fmt.Fprintf(&b, "%dS", s)
	}
	return b.String()
}
