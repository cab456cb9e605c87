package clock

import "time"

// Clock supplies the numeric epoch timestamps stored on clinical rows.
// The backing store keeps millisecond epochs, not calendar dates.
type Clock interface {
	NowMillis() int64
}

type systemClock struct{}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

// Fixed returns a Clock that always reports the given epoch millis.
// Intended for tests.
func Fixed(millis int64) Clock {
	return fixedClock(millis)
}

type fixedClock int64

func (c fixedClock) NowMillis() int64 {
	return int64(c)
}
