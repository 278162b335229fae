package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDate is returned when a DD/MM token does not name a real day of
// the year.
var ErrInvalidDate = errors.New("invalid date")

var dayMonthRegex = regexp.MustCompile(`^(\d{2})/(\d{2})$`)

// leapYear is used to validate day/month pairs, so 29/02 is always accepted.
const leapYear = 2000

// Date is a day of the year as printed on a statement line. Statements only
// carry DD/MM, the year is supplied later by whoever exports the table.
type Date struct {
	Day   int
	Month time.Month
}

// ParseDate parses a DD/MM token.
func ParseDate(s string) (Date, error) {
	m := dayMonthRegex.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	// time.Date normalizes overflow, so 31/02 comes back as March.
	t := time.Date(leapYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Day: day, Month: time.Month(month)}, nil
}

// In anchors the date to a year. 29/02 on a non leap year rolls to 01/03.
func (d Date) In(year int) time.Time {
	return time.Date(year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before orders dates by month, then day.
func (d Date) Before(other Date) bool {
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) IsZero() bool {
	return d.Day == 0 && d.Month == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d", d.Day, int(d.Month))
}

// Format renders the date as YYYY-MM-DD when a year is known and as DD/MM
// otherwise.
func (d Date) Format(year int) string {
	if year <= 0 {
		return d.String()
	}
	return d.In(year).Format("2006-01-02")
}
