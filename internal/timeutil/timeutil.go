// Package timeutil parses the time specs commands accept and converts
// between time.Time and Slack's string timestamps.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativePattern = regexp.MustCompile(`^(\d+)([hdwm])$`)

// ParseTimeSpec interprets a user-supplied time spec: "now", "today",
// "yesterday", a relative duration like "2h", "3d", "1w", or "1m" (months
// approximated as 30 days), an ISO date, or an ISO datetime. Dates and
// datetimes without a zone are taken as UTC.
func ParseTimeSpec(spec string, now time.Time) (time.Time, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	switch spec {
	case "":
		return time.Time{}, fmt.Errorf("empty time spec")
	case "now":
		return now, nil
	case "today":
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case "yesterday":
		y, m, d := now.UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	if m := relativePattern.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time spec %q: %w", spec, err)
		}
		var d time.Duration
		switch m[2] {
		case "h":
			d = time.Duration(n) * time.Hour
		case "d":
			d = time.Duration(n) * 24 * time.Hour
		case "w":
			d = time.Duration(n) * 7 * 24 * time.Hour
		case "m":
			d = time.Duration(n) * 30 * 24 * time.Hour
		}
		return now.Add(-d), nil
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, spec, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time spec %q (want 'today', '2h', '3d', or an ISO date)", spec)
}

// IsRelative reports whether spec is a relative offset like "2h" or "3d".
// Relative specs always point into the past when parsed.
func IsRelative(spec string) bool {
	return relativePattern.MatchString(strings.TrimSpace(strings.ToLower(spec)))
}

// ToSlackTS formats a time as a Slack message timestamp.
func ToSlackTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// FromSlackTS parses a Slack message timestamp.
func FromSlackTS(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid Slack timestamp %q: %w", ts, err)
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec), nil
}

// HumanTime renders a Unix timestamp for display.
func HumanTime(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}

// HumanTS renders a Slack message timestamp for display, falling back to
// the raw value when it does not parse.
func HumanTS(ts string) string {
	t, err := FromSlackTS(ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
