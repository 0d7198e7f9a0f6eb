package dates

import (
	"fmt"
	"time"
)

// Clock yields the current calendar date.
type Clock interface {
	Today() time.Time
}

// LocalClock reads the wall clock in a fixed location.
type LocalClock struct {
	loc *time.Location
	now func() time.Time
}

func NewLocalClock(loc *time.Location) *LocalClock {
	if loc == nil {
		loc = time.UTC
	}
	return &LocalClock{loc: loc, now: time.Now}
}

// LoadClock builds a LocalClock from an IANA zone name ("" means UTC).
func LoadClock(zone string) (*LocalClock, error) {
	if zone == "" {
		return NewLocalClock(time.UTC), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return NewLocalClock(loc), nil
}

func (c *LocalClock) Today() time.Time {
	return Normalize(c.now().In(c.loc))
}

// FixedClock always reports the same date.
type FixedClock struct {
	Day time.Time
}

func (c FixedClock) Today() time.Time {
	return Normalize(c.Day)
}
