package metrics

import (
	"database/sql"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS readings (
	       timestamp       INTEGER PRIMARY KEY,
	       source_alive    INTEGER NOT NULL CHECK (source_alive IN (0, 1)),
	       cpu_temp        REAL NOT NULL,
	       cpu_usage       REAL NOT NULL,
	       gpu_temp        REAL NOT NULL,
	       gpu_usage       REAL NOT NULL,
	       gpu_mem_used    REAL NOT NULL,
	       gpu_mem_total   REAL NOT NULL,
	       gpu_mem_percent REAL NOT NULL,
	       net_up          REAL NOT NULL,
	       net_down        REAL NOT NULL
	   );`

	insertReadingSQL = `
    INSERT OR REPLACE INTO readings (
        timestamp, source_alive,
        cpu_temp, cpu_usage,
        gpu_temp, gpu_usage,
        gpu_mem_used, gpu_mem_total, gpu_mem_percent,
        net_up, net_down
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecentSQL = `
    SELECT
        timestamp, source_alive,
        cpu_temp, cpu_usage,
        gpu_temp, gpu_usage,
        gpu_mem_used, gpu_mem_total, gpu_mem_percent,
        net_up, net_down
    FROM readings
    ORDER BY timestamp DESC
    LIMIT ?`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	defer rollback(tx, log)

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return stepError(ErrSchemaInitFailed, "create_tables", err)
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return stepError(ErrSchemaInitFailed, "record_version", err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// rollback undoes tx unless it was already committed.
func rollback(tx *sql.Tx, log logger.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Debug().Err(err).Msg("Failed to roll back transaction")
	}
}

// GetSchemaVersion returns the current schema version
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, stepError(ErrSchemaValidationFailed, "get_version", err)
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, stepError(ErrSchemaValidationFailed, "check_table_exists " + tableName, err)
	}
	return exists, nil
}
