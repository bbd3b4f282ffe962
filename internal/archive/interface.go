package archive

import (
	"context"
	"time"
)

// Archiver appends ingested reports to durable storage. The archive is
// write-only; nothing is read back into the observation store.
type Archiver interface {
	Record(ctx context.Context, entry *Entry) error
	Close() error
	Enabled() bool
}

// Repository defines the interface for archive storage
type Repository interface {
	Record(entry *Entry) error
	Close() error
}

// Entry is one report as applied by the organizer
type Entry struct {
	ReceivedAt  time.Time
	StoreID     string
	SensorIndex int
	SensorName  string
	Temperature int
}
