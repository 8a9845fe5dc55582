package clock

import (
	"fmt"
	"time"
)

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall time in Location, or the process local zone when unset.
// Day boundaries are computed in that zone.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

// DayKey identifies the calendar day containing t, in t's location (year + day-of-year).
func DayKey(t time.Time) string {
	return fmt.Sprintf("%04d-%03d", t.Year(), t.YearDay())
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
