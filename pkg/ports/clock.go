package ports

import "time"

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Clock provides time to the scheduler so tests can drive delays deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	Sleep(d time.Duration)
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
