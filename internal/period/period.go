// Package period derives the canonical calendar keys used to bucket contracts,
// awards and leaderboard snapshots, and maps keys back to time ranges.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPeriodKey is returned when a key cannot be mapped to a range.
var ErrInvalidPeriodKey = errors.New("invalid period key")

// Type is the granularity of a leaderboard or award period.
type Type string

const (
	Daily     Type = "DAILY"
	Weekly    Type = "WEEKLY"
	Monthly   Type = "MONTHLY"
	Quarterly Type = "QUARTERLY"
	Yearly    Type = "YEARLY"
)

// Types lists every period type in increasing span.
var Types = []Type{Daily, Weekly, Monthly, Quarterly, Yearly}

// ParseType accepts the canonical names case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown period type %q", s)
}

// Lifetime is the period key of once-ever awards.
const Lifetime = "lifetime"

// Keys holds the five keys of one instant.
type Keys struct {
	Day     string `json:"day"`
	Week    string `json:"week"`
	Month   string `json:"month"`
	Quarter string `json:"quarter"`
	Year    string `json:"year"`
}

// Of returns the key for a period type.
func (k Keys) Of(t Type) string {
	switch t {
	case Daily:
		return k.Day
	case Weekly:
		return k.Week
	case Monthly:
		return k.Month
	case Quarterly:
		return k.Quarter
	default:
		return k.Year
	}
}

// KeysFor computes every key of t, using the calendar date t carries in its
// own location.
func KeysFor(t time.Time) Keys {
	return Keys{
		Day:     DayKey(t),
		Week:    WeekKey(t),
		Month:   MonthKey(t),
		Quarter: QuarterKey(t),
		Year:    YearKey(t),
	}
}

// KeyFor returns the key of t for one period type.
func KeyFor(pt Type, t time.Time) string {
	return KeysFor(t).Of(pt)
}

func DayKey(t time.Time) string   { return t.Format("2006-01-02") }
func MonthKey(t time.Time) string { return t.Format("2006-01") }
func YearKey(t time.Time) string  { return t.Format("2006") }

// QuarterKey formats YYYY-Qn.
func QuarterKey(t time.Time) string {
	return fmt.Sprintf("%04d-Q%d", t.Year(), quarterOf(t.Month()))
}

// WeekKey formats the ISO-8601 week, YYYY-Www. The year is the ISO year,
// i.e. the year holding the Thursday of that week.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// IsQuarterEnd reports whether m closes its quarter.
func IsQuarterEnd(m time.Month) bool {
	return int(m)%3 == 0
}

// Range is an inclusive time window; End is the last millisecond of the period.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func closing(start, next time.Time) Range {
	return Range{Start: start, End: next.Add(-time.Millisecond)}
}

// WeekRange maps YYYY-Www to Monday 00:00 through Sunday 23:59:59.999 in loc.
func WeekRange(key string, loc *time.Location) (Range, error) {
	if len(key) != 8 || key[4:6] != "-W" || !digits(key[:4]) || !digits(key[6:]) {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	year, _ := strconv.Atoi(key[:4])
	week, _ := strconv.Atoi(key[6:])
	if week < 1 || week > 53 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	monday := jan4.AddDate(0, 0, -(isoWeekday(jan4) - 1)).AddDate(0, 0, (week-1)*7)

	if y, w := monday.ISOWeek(); y != year || w != week {
		return Range{}, fmt.Errorf("%w: %q has no such ISO week", ErrInvalidPeriodKey, key)
	}
	return closing(monday, monday.AddDate(0, 0, 7)), nil
}

// MonthRange maps YYYY-MM to the whole month in loc.
func MonthRange(key string, loc *time.Location) (Range, error) {
	t, err := time.ParseInLocation("2006-01", key, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	return closing(t, t.AddDate(0, 1, 0)), nil
}

// QuarterRange maps YYYY-Qn to the three months of the quarter in loc.
func QuarterRange(key string, loc *time.Location) (Range, error) {
	if len(key) != 7 || key[4:6] != "-Q" || !digits(key[:4]) || !digits(key[6:]) {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	year, _ := strconv.Atoi(key[:4])
	q, _ := strconv.Atoi(key[6:])
	if q < 1 || q > 4 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}

	start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, loc)
	return closing(start, start.AddDate(0, 3, 0)), nil
}

// DayRange maps YYYY-MM-DD to the whole day in loc.
func DayRange(key string, loc *time.Location) (Range, error) {
	t, err := time.ParseInLocation("2006-01-02", key, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	return closing(t, t.AddDate(0, 0, 1)), nil
}

// YearRange maps YYYY to the whole year in loc.
func YearRange(key string, loc *time.Location) (Range, error) {
	t, err := time.ParseInLocation("2006", key, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	return closing(t, t.AddDate(1, 0, 0)), nil
}

// RangeOf dispatches to the range parser of pt.
func RangeOf(pt Type, key string, loc *time.Location) (Range, error) {
	switch pt {
	case Daily:
		return DayRange(key, loc)
	case Weekly:
		return WeekRange(key, loc)
	case Monthly:
		return MonthRange(key, loc)
	case Quarterly:
		return QuarterRange(key, loc)
	case Yearly:
		return YearRange(key, loc)
	}
	return Range{}, fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriodKey, pt)
}

// Previous returns an instant inside the period preceding the one holding t.
func Previous(pt Type, t time.Time) time.Time {
	y, m, d := t.Date()
	switch pt {
	case Daily:
		return time.Date(y, m, d, 12, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
	case Weekly:
		return time.Date(y, m, d, 12, 0, 0, 0, t.Location()).AddDate(0, 0, -7)
	case Monthly:
		return time.Date(y, m, 1, 12, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
	case Quarterly:
		first := time.Month((quarterOf(m)-1)*3 + 1)
		return time.Date(y, first, 1, 12, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
	default:
		return time.Date(y, time.January, 1, 12, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
	}
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
