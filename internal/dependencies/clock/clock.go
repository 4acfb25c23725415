package clock

import "time"

// Clock provides the current time so expiry, liveness and lockout logic can be tested
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current UTC time
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed on clk since t
func Since(clk Clock, t time.Time) time.Duration {
	return clk.Now().Sub(t)
}
