package domain

import "time"

const (
	secondsPerDay = 24 * 60 * 60
	dayLayout     = "2006-01-02"
)

// Day is a calendar day, counted in days since 1970-01-01.
// Two instants on the same calendar day (in the reference location) map to the
// same Day, so time-of-day never affects comparisons between Days.
type Day int64

// DayOf truncates t to its calendar day as observed in loc.
// A nil loc is treated as UTC.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return NewDay(y, m, d)
}

// NewDay returns the Day for the given civil date.
// Out-of-range values are normalised the same way time.Date normalises them.
func NewDay(year int, month time.Month, day int) Day {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day(midnight.Unix() / secondsPerDay)
}

// Time returns midnight UTC at the start of d.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// AddDays returns the day n days after d. n may be negative.
func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

// String formats d as "2006-01-02".
func (d Day) String() string {
	return d.Time().Format(dayLayout)
}

// DateRange is a closed range of calendar days: both Start and End are included.
type DateRange struct {
	Start Day
	End   Day
}

// Contains reports whether d falls within the range, bounds included.
func (r DateRange) Contains(d Day) bool {
	return d >= r.Start && d <= r.End
}

// Days returns the number of calendar days covered by the range.
// A range whose End precedes its Start covers zero days.
func (r DateRange) Days() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End-r.Start) + 1
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
