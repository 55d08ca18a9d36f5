// Package poll drives one fetch-extract-emit pass per tick and backs off
// for a fixed interval after the feed fails.
package poll

import (
	"context"
	"time"

	"codeberg.org/mutker/lhmosc/internal/logger"
	"codeberg.org/mutker/lhmosc/internal/metrics"
	"codeberg.org/mutker/lhmosc/internal/osc"
	"codeberg.org/mutker/lhmosc/internal/sensor"
	"codeberg.org/mutker/lhmosc/internal/source"
	"codeberg.org/mutker/lhmosc/internal/timecode"
)

// Outcome describes what a tick did.
type Outcome int

const (
	Skipped Outcome = iota
	Failed
	Polled
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Polled:
		return "polled"
	default:
		return "unknown"
	}
}

// Settings are the parts of the configuration the cycle reads.
type Settings struct {
	Names         sensor.NameMap
	Interface     string
	RetryInterval time.Duration
}

// Cycle fetches, extracts and emits. It holds no per-tick state; that
// lives in State and is passed to every Tick.
type Cycle struct {
	source   source.Fetcher
	sender   osc.Sender
	recorder metrics.Recorder
	settings Settings
	logger   logger.Logger
}

// New creates a Cycle. recorder may be nil.
func New(src source.Fetcher, sender osc.Sender, recorder metrics.Recorder, settings Settings, log logger.Logger) *Cycle {
	c := &Cycle{
		source:   src,
		sender:   sender,
		recorder: recorder,
		logger:   log,
	}
	c.SetSettings(settings)

	return c
}

// SetSettings replaces names, interface and retry interval. Call between ticks.
func (c *Cycle) SetSettings(s Settings) {
	if s.Interface == "" {
		s.Interface = sensor.DefaultInterface
	}
	if s.RetryInterval <= 0 {
		s.RetryInterval = DefaultRetryInterval
	}
	c.settings = s
}

// SetSource swaps the feed client. Call between ticks.
func (c *Cycle) SetSource(src source.Fetcher) {
	c.source = src
}

// RetryInterval returns the active cooldown.
func (c *Cycle) RetryInterval() time.Duration {
	return c.settings.RetryInterval
}

// Tick runs one pass at now. While the cooldown after a failure has not
// elapsed nothing is fetched. A failed fetch marks the source dead and
// restarts the cooldown; a successful one refreshes the readings and
// emits all parameters.
func (c *Cycle) Tick(ctx context.Context, st *State, now time.Time) Outcome {
	if !st.Due(now, c.settings.RetryInterval) {
		return Skipped
	}

	root, err := c.source.Fetch(ctx)
	if err != nil {
		if st.SourceAlive {
			c.logger.Warn().Err(err).Msg("Sensor feed unavailable")
		} else {
			c.logger.Debug().Err(err).Msg("Sensor feed still unavailable")
		}
		st.SourceAlive = false
		st.LastFailure = now
		return Failed
	}

	if !st.SourceAlive {
		c.logger.Info().Msg("Sensor feed available")
	}
	st.SourceAlive = true
	st.LastPoll = now
	st.Readings = sensor.Extract(root, c.settings.Names, c.settings.Interface, st.Readings)

	c.emit(st.Readings, now)
	c.record(ctx, st, now)
	c.logReadings(st.Readings)

	return Polled
}

func (c *Cycle) emit(r sensor.Readings, now time.Time) {
	c.sender.Emit(osc.PathCPUTemp, float32(r.CPUTemp))
	c.sender.Emit(osc.PathCPUUsage, float32(r.CPUUsage))
	c.sender.Emit(osc.PathGPUTemp, float32(r.GPUTemp))
	c.sender.Emit(osc.PathGPUUsage, float32(r.GPUUsage))
	c.sender.Emit(osc.PathGPUMemUsed, float32(r.GPUMemUsed))
	c.sender.Emit(osc.PathGPUMemPercent, float32(r.GPUMemPercent))
	c.sender.Emit(osc.PathNetUp, float32(r.NetUp))
	c.sender.Emit(osc.PathNetDown, float32(r.NetDown))

	c.sender.Emit(osc.PathTimeString, timecode.Numeric(now))
	c.sender.Emit(osc.PathWeekday, timecode.Weekday(now))
}

func (c *Cycle) record(ctx context.Context, st *State, now time.Time) {
	if c.recorder == nil {
		return
	}

	err := c.recorder.Record(ctx, &metrics.Snapshot{
		Timestamp:   now,
		SourceAlive: st.SourceAlive,
		Readings:    st.Readings,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to record readings")
	}
}

func (c *Cycle) logReadings(r sensor.Readings) {
	c.logger.Debug().
		Float64("cpu_temp", r.CPUTemp).
		Float64("cpu_usage", r.CPUUsage).
		Float64("gpu_temp", r.GPUTemp).
		Float64("gpu_usage", r.GPUUsage).
		Float64("gpu_mem_used", r.GPUMemUsed).
		Float64("gpu_mem_total", r.GPUMemTotal).
		Float64("gpu_mem_percent", r.GPUMemPercent).
		Float64("net_up", r.NetUp).
		Float64("net_down", r.NetDown).
		Msg("")
}
