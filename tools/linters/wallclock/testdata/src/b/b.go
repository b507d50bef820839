package b

import (
	clock "time"
)

type fake struct{}

func (fake) Now() int { return 0 }

func renamed() clock.Time {
	return clock.Now() // want `time.Now reads the wall clock; take the current time as a parameter`
}

func method(f fake) int {
	return f.Now()
}
