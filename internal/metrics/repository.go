package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db            *sql.DB
	logger        logger.Logger
	cfg           Config
	mu            sync.Mutex
	buffer        []*Snapshot
	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, stepError(ErrStorageInit, "create_directory " + cfg.DBPath, err)
	}

	// WAL journal, incremental auto-vacuum.
	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, stepError(ErrStorageInit, "open_database", err)
	}

	backupDir := filepath.Join(filepath.Dir(cfg.DBPath), "backups")
	if err := ValidateAndUpdateSchema(db, backupDir, log); err != nil {
		db.Close()
		return nil, stepError(ErrStorageInit, "schema_version", err)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Dur("batch_timeout", cfg.BatchTimeout).
		Msg("History repository initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		buffer:        make([]*Snapshot, 0, max(cfg.BatchSize, 1)),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	// Periodic flushing only makes sense when records are batched
	if cfg.BatchSize > 1 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(cfg.BatchTimeout)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	return repo, nil
}

func (r *repository) Record(snapshot *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, snapshot)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

// Recent returns up to limit stored snapshots, newest first. Buffered
// snapshots are flushed before reading.
func (r *repository) Recent(limit int) ([]Snapshot, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flush(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(selectRecentSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			ts    int64
			alive int
			s     Snapshot
		)
		if err := rows.Scan(
			&ts, &alive,
			&s.Readings.CPUTemp, &s.Readings.CPUUsage,
			&s.Readings.GPUTemp, &s.Readings.GPUUsage,
			&s.Readings.GPUMemUsed, &s.Readings.GPUMemTotal, &s.Readings.GPUMemPercent,
			&s.Readings.NetUp, &s.Readings.NetDown,
		); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		s.Timestamp = time.Unix(ts, 0)
		s.SourceAlive = alive == 1
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return snapshots, nil
}

func (r *repository) Close() error {
	// Signal the flusher goroutine to stop and wait for its final flush
	close(r.shutdownChan)
	<-r.flushDoneChan

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flush(); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to flush history on close")
	}

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return stepError(ErrStorageClose, "checkpoint_wal", err)
	}

	if err := r.db.Close(); err != nil {
		return stepError(ErrStorageClose, "close_database", err)
	}

	r.logger.Info().Msg("History repository closed gracefully")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)
	defer r.flushTicker.Stop()

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Warn().Err(err).Msg("Periodic history flush failed")
			}
			r.mu.Unlock()
		case <-r.shutdownChan:
			return
		}
	}
}

// flush writes the buffer in one transaction and always empties it. A row
// SQLite refuses is logged and skipped; a failed transaction drops the
// whole batch. Callers hold r.mu.
func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}
	defer func() { r.buffer = r.buffer[:0] }()

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error().Err(err).Int("dropped", len(r.buffer)).Msg("Failed to begin transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertReadingSQL)
	if err != nil {
		r.logger.Error().Err(err).Int("dropped", len(r.buffer)).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	written := 0
	for _, snapshot := range r.buffer {
		rd := snapshot.Readings
		if _, err := stmt.Exec(
			snapshot.Timestamp.Unix(),
			boolToInt(snapshot.SourceAlive),
			rd.CPUTemp, rd.CPUUsage,
			rd.GPUTemp, rd.GPUUsage,
			rd.GPUMemUsed, rd.GPUMemTotal, rd.GPUMemPercent,
			rd.NetUp, rd.NetDown,
		); err != nil {
			r.logger.Warn().Err(err).Time("timestamp", snapshot.Timestamp).Msg("Skipping unstorable reading")
			continue
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Int("dropped", len(r.buffer)).Msg("Failed to commit transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().
		Int("records", written).
		Int("skipped", len(r.buffer)-written).
		Msg("Flushed readings to database")

	return nil
}
