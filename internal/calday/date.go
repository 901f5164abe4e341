// Package calday provides calendar dates with no time-of-day or timezone.
//
// A Date is a (year, month, day) triple. Arithmetic normalises through UTC
// civil dates, so results never depend on the zone of the running process.
package calday

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Layout is the only accepted textual form of a Date.
const Layout = "2006-01-02"

// ErrMalformedDate is matched by every MalformedDateError.
var ErrMalformedDate = errors.New("malformed date")

// MalformedDateError reports a string that is not a valid YYYY-MM-DD date.
type MalformedDateError struct {
	Input string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q (use YYYY-MM-DD)", e.Input)
}

// Is reports whether target is ErrMalformedDate.
func (e *MalformedDateError) Is(target error) bool {
	return target == ErrMalformedDate
}

// Date is a calendar date. The zero value is "unset".
type Date struct {
	year  int
	month time.Month
	day   int
}

// New returns the date for the given fields, normalising overflow the way
// time.Date does (January 32 is February 1).
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// Parse parses a YYYY-MM-DD string. Logically invalid dates such as
// 2024-02-30 are rejected rather than rolled over.
func Parse(s string) (Date, error) {
	if len(s) != len(Layout) || s[4] != '-' || s[7] != '-' {
		return Date{}, &MalformedDateError{Input: s}
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return Date{}, &MalformedDateError{Input: s}
		}
	}
	y, err := strconv.Atoi(s[0:4])
	if err != nil {
		return Date{}, &MalformedDateError{Input: s}
	}
	m, err := strconv.Atoi(s[5:7])
	if err != nil {
		return Date{}, &MalformedDateError{Input: s}
	}
	d, err := strconv.Atoi(s[8:10])
	if err != nil {
		return Date{}, &MalformedDateError{Input: s}
	}
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return Date{}, &MalformedDateError{Input: s}
	}

	date := New(y, time.Month(m), d)
	if date.year != y || int(date.month) != m || date.day != d {
		return Date{}, &MalformedDateError{Input: s}
	}
	return date, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Year returns the year.
func (d Date) Year() int { return d.year }

// Month returns the month.
func (d Date) Month() time.Month { return d.month }

// Day returns the day of the month.
func (d Date) Day() int { return d.day }

// utc returns midnight UTC of d. UTC has no DST transitions, so whole-day
// differences between two such instants are exact.
func (d Date) utc() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Time returns midnight UTC of d, for APIs that want a time.Time holding
// a date.
func (d Date) Time() time.Time {
	return d.utc()
}

// AddDays shifts d by n calendar days; n may be negative.
func (d Date) AddDays(n int) Date {
	return New(d.year, d.month, d.day+n)
}

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.utc().Sub(d.utc()).Hours() / 24)
}

// Compare returns -1, 0 or +1 as d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Equal reports whether d and other are the same date.
func (d Date) Equal(other Date) bool { return d == other }

// Min returns the earlier of a and b.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later of a and b.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func (d Date) ISOWeekday() int {
	wd := d.utc().Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// dayLabels is indexed by ISOWeekday-1.
var dayLabels = [7]string{"L", "M", "M", "J", "V", "S", "D"}

// DayLabel returns the single-letter weekday label used in calendar headers.
func (d Date) DayLabel() string {
	return dayLabels[d.ISOWeekday()-1]
}

// Display returns the day of month as shown in calendar columns.
func (d Date) Display() string {
	return strconv.Itoa(d.day)
}

// String formats d as YYYY-MM-DD. The zero Date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalJSON encodes d as a YYYY-MM-DD string, or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &MalformedDateError{Input: string(data)}
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores d as TEXT so SQLite comparisons on the column sort by date.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan reads a date column. go-sqlite3 may hand back a string, []byte or,
// for columns declared DATE, a time.Time.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("scanning date: unsupported type %T", src)
	}
}
