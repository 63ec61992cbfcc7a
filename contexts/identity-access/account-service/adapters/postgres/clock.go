package postgresadapter

import "time"

// SystemClock satisfies ports.Clock with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
