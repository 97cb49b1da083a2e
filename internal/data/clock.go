package data

import "time"

// Clock returns the current time. Repositories stamp rows with it so tests
// can pin timestamps.
type Clock func() time.Time

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
