package metrics

import (
	"context"
	"math"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	"codeberg.org/mutker/lhmosc/internal/sensor"
)

type service struct {
	repo Repository
	cfg  Config
}

// noopRecorder stands in when history is disabled.
type noopRecorder struct{}

func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Reading history disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("History service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidMetrics)
	}
	if !finite(snapshot.Readings) {
		return errFactory.WithData(ErrInvalidMetrics, snapshot.Readings)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(snapshot); err != nil {
			return errFactory.Wrap(ErrMetricsCollection, err)
		}
	}

	return nil
}

func (s *service) Recent(limit int) ([]Snapshot, error) {
	snapshots, err := s.repo.Recent(limit)
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	return snapshots, nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

func (*noopRecorder) Record(_ context.Context, _ *Snapshot) error {
	return nil
}

func (*noopRecorder) Recent(_ int) ([]Snapshot, error) {
	return []Snapshot{}, nil
}

func (*noopRecorder) Close() error {
	return nil
}

func finite(r sensor.Readings) bool {
	for _, v := range []float64{
		r.CPUTemp, r.CPUUsage, r.GPUTemp, r.GPUUsage,
		r.GPUMemUsed, r.GPUMemTotal, r.GPUMemPercent,
		r.NetUp, r.NetDown,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
