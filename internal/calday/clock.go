package calday

import "time"

// Clock supplies "today". Core queries take today as a parameter; only the
// outer layers ask a Clock.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock returns a clock for the named IANA zone. An empty name
// means the process's local zone.
func NewSystemClock(zone string) (*SystemClock, error) {
	if zone == "" {
		return &SystemClock{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &SystemClock{Location: loc}, nil
}

// Today returns the current date in the clock's location.
func (c *SystemClock) Today() Date {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// FixedClock always returns the same date.
type FixedClock Date

// Today returns the fixed date.
func (c FixedClock) Today() Date { return Date(c) }
