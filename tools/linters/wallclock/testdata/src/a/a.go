package a

import "time"

func now() time.Time {
	return time.Now() // want `time.Now reads the wall clock; take the current time as a parameter`
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start) // want `time.Since reads the wall clock; take the current time as a parameter`
}

func remaining(deadline time.Time) time.Duration {
	return time.Until(deadline) // want `time.Until reads the wall clock; take the current time as a parameter`
}

type calculator struct {
	clock func() time.Time
}

func newCalculator() calculator {
	return calculator{clock: time.Now} // want `time.Now reads the wall clock; take the current time as a parameter`
}

func next(now time.Time) time.Time {
	return now.Add(24 * time.Hour).UTC()
}

func parsed() (time.Time, error) {
	return time.Parse(time.RFC3339, "2025-12-01T08:00:00Z")
}

func nolintGeneral() time.Time {
	//nolint
	return time.Now()
}

func nolintSpecific() time.Time {
	return time.Now() //nolint:wallclock
}

func nolintOther() time.Time {
	return time.Now() //nolint:otherlinter // want `time.Now reads the wall clock; take the current time as a parameter`
}
