package models

import (
	"context"
	"time"
)

// RecordStore defines the bounded session-scoped record collection.
// Append is the only mutation; All returns records most recent first.
type RecordStore interface {
	Append(record MeasurementRecord) error
	All() ([]MeasurementRecord, error)
	Len() (int, error)
	Subscribe() <-chan struct{}
	Close() error
}

// Clock abstracts time so the sequencer and fillers can run without
// real delays in tests. Sleep returns the context error when cancelled
// before the duration elapses.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Rand is the randomness source behind every simulated value.
type Rand interface {
	Float64() float64 // uniform in [0,1)
}
