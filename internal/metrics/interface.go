package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/lhmosc/internal/sensor"
)

// Recorder stores the readings of successful polls and reads them back
type Recorder interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Recent(limit int) ([]Snapshot, error)
	Close() error
}

// Repository defines the interface for reading history storage
type Repository interface {
	Record(snapshot *Snapshot) error
	Recent(limit int) ([]Snapshot, error)
	Close() error
}

// Snapshot is one poll worth of readings
type Snapshot struct {
	Timestamp   time.Time       `json:"timestamp"`
	SourceAlive bool            `json:"source_alive"`
	Readings    sensor.Readings `json:"readings"`
}
