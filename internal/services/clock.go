package services

import "time"

// Clock abstracts wall-clock reads and timer creation so scheduling is
// deterministic under test.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the cancellable handle returned by Clock.AfterFunc. Stop reports
// whether the timer was stopped before firing.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by the real time package.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
