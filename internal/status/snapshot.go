package status

import (
	"time"

	"codeberg.org/mutker/lhmosc/internal/poll"
	"codeberg.org/mutker/lhmosc/internal/sensor"
	"codeberg.org/mutker/lhmosc/internal/timecode"
)

// Level grades a reading for display.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarn     Level = "warn"
	LevelCritical Level = "critical"
)

// TempLevel grades a temperature in °C.
func TempLevel(v float64) Level {
	switch {
	case v >= 60:
		return LevelCritical
	case v >= 40:
		return LevelWarn
	default:
		return LevelNormal
	}
}

// UsageLevel grades a percentage.
func UsageLevel(v float64) Level {
	switch {
	case v >= 90:
		return LevelCritical
	case v >= 70:
		return LevelWarn
	default:
		return LevelNormal
	}
}

type Levels struct {
	CPUTemp       Level `json:"cpu_temp"`
	CPUUsage      Level `json:"cpu_usage"`
	GPUTemp       Level `json:"gpu_temp"`
	GPUUsage      Level `json:"gpu_usage"`
	GPUMemPercent Level `json:"gpu_mem_percent"`
}

// Snapshot is what display clients see for one tick.
type Snapshot struct {
	Time          string          `json:"time"`
	Weekday       string          `json:"weekday"`
	WeekdayCode   float32         `json:"weekday_code"`
	SourceAlive   bool            `json:"source_alive"`
	LastPoll      *time.Time      `json:"last_poll,omitempty"`
	Readings      sensor.Readings `json:"readings"`
	Levels        Levels          `json:"levels"`
	RetryIn       float64         `json:"retry_in_seconds,omitempty"`
	RetryProgress float64         `json:"retry_progress,omitempty"`
}

// NewSnapshot copies st as seen at now.
func NewSnapshot(st poll.State, now time.Time, retry time.Duration) Snapshot {
	r := st.Readings
	snap := Snapshot{
		Time:        timecode.Clock(now),
		Weekday:     now.Weekday().String(),
		WeekdayCode: timecode.Weekday(now),
		SourceAlive: st.SourceAlive,
		Readings:    r,
		Levels: Levels{
			CPUTemp:       TempLevel(r.CPUTemp),
			CPUUsage:      UsageLevel(r.CPUUsage),
			GPUTemp:       TempLevel(r.GPUTemp),
			GPUUsage:      UsageLevel(r.GPUUsage),
			GPUMemPercent: UsageLevel(r.GPUMemPercent),
		},
	}

	if !st.LastPoll.IsZero() {
		lastPoll := st.LastPoll
		snap.LastPoll = &lastPoll
	}

	if !st.SourceAlive && retry > 0 {
		elapsed := now.Sub(st.LastFailure)
		snap.RetryIn = st.RetryIn(now, retry).Seconds()
		snap.RetryProgress = min(max(elapsed.Seconds()/retry.Seconds(), 0), 1)
	}

	return snap
}
