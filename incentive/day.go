package incentive

import (
	"time"
)

// =============================================================================
// DAY - Day-granular date (UTC)
// =============================================================================

// Day is a calendar date. All engine math is day-granular: sales facts,
// incentive attribution, and month boundaries all key on Day.
type Day struct {
	Time time.Time
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

func Today() Day { return DayOf(time.Now().UTC()) }

// Comparison
func (d Day) Before(other Day) bool        { return d.normalize().Before(other.normalize()) }
func (d Day) Equal(other Day) bool         { return d.normalize().Equal(other.normalize()) }
func (d Day) After(other Day) bool         { return d.normalize().After(other.normalize()) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }

func (d Day) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{Time: d.Time.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Day) Year() int         { return d.Time.Year() }
func (d Day) Month() time.Month { return d.Time.Month() }
func (d Day) DayOfMonth() int   { return d.Time.Day() }
func (d Day) IsZero() bool      { return d.Time.IsZero() }

// EndOfDay is the rule-resolution timestamp for facts without a recorded
// sync time: the last instant of the calendar day.
func (d Day) EndOfDay() time.Time {
	n := d.normalize()
	return time.Date(n.Year(), n.Month(), n.Day(), 23, 59, 59, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in this day's month.
// The daily target divides the monthly salary target by this figure.
func (d Day) DaysInMonth() int {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

func (d Day) String() string { return d.normalize().Format("2006-01-02") }

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] date range. The cumulative tracks
// always evaluate over the month period containing the target day.
type Period struct {
	Start Day
	End   Day
}

func (p Period) Contains(d Day) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day in the period in order.
func (p Period) Days() []Day {
	var days []Day
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthOf returns the calendar-month period containing the day.
func MonthOf(d Day) Period {
	start := NewDay(d.Year(), d.Month(), 1)
	return Period{Start: start, End: start.AddMonths(1).AddDays(-1)}
}

// MonthPeriod returns the period for an explicit year/month.
func MonthPeriod(year int, month time.Month) Period {
	return MonthOf(NewDay(year, month, 1))
}
