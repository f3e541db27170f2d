package util

import (
    "fmt"
    "math"
    "strconv"
    "time"
)

// unixEpochJD is the Julian Day of 1970-01-01T00:00:00Z.
const unixEpochJD = 2440587.5

const (
    DateLayout  = "2006-01-02"
    MonthLayout = "2006-01"
)

var localLayouts = []string{
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "2006-01-02 15:04:05",
    "2006-01-02 15:04",
    DateLayout,
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// LoadZone resolves an IANA zone name. Empty means UTC.
func LoadZone(name string) (*time.Location, error) {
    if name == "" || name == "UTC" {
        return time.UTC, nil
    }
    loc, err := time.LoadLocation(name)
    if err != nil {
        return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
    }
    return loc, nil
}

// ParseLocal parses a wall-clock datetime in the named zone and returns it in UTC.
// An absolute instant (RFC3339 with offset, or unix seconds) wins over the zone.
func ParseLocal(value, zone string) (time.Time, error) {
    if t, ok := ParseTime(value); ok {
        return t.UTC(), nil
    }
    loc, err := LoadZone(zone)
    if err != nil {
        return time.Time{}, err
    }
    for _, layout := range localLayouts {
        if t, err := time.ParseInLocation(layout, value, loc); err == nil {
            return t.UTC(), nil
        }
    }
    return time.Time{}, fmt.Errorf("invalid datetime %q", value)
}

// JulianDayUT returns the Julian Day number (UT) of t.
func JulianDayUT(t time.Time) float64 {
    u := t.UTC()
    days := float64(u.Unix()) / 86400.0
    frac := float64(u.Nanosecond()) / float64(24*time.Hour)
    return unixEpochJD + days + frac
}

// TimeFromJulianDay is the inverse of JulianDayUT, truncated to the second.
func TimeFromJulianDay(jd float64) time.Time {
    secs := (jd - unixEpochJD) * 86400.0
    return time.Unix(int64(math.Round(secs)), 0).UTC()
}

// MonthBounds returns the first instant of the month and of the following month (UTC).
func MonthBounds(month string) (time.Time, time.Time, error) {
    start, err := time.Parse(MonthLayout, month)
    if err != nil {
        return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: use YYYY-MM", month)
    }
    return start, start.AddDate(0, 1, 0), nil
}

// Days lists midnights from start (inclusive) to end (exclusive).
func Days(start, end time.Time) []time.Time {
    var out []time.Time
    for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
        out = append(out, d)
    }
    return out
}
