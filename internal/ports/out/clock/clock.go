package clock

import "time"

// Clock stamps stored profile values.
// Tests substitute a controllable implementation.
type Clock interface {
	Now() time.Time
}
