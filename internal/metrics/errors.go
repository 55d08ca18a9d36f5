package metrics

import (
	"fmt"

	"codeberg.org/mutker/lhmosc/internal/errors"
)

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("metrics_invalid_db_path")

	ErrSchemaInitFailed       = errors.ErrorCode("metrics_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("metrics_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("metrics_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("metrics_transaction_failed")

	ErrStorageAccess   = errors.ErrorCode("metrics_storage_access_failed")
	ErrStorageInit     = errors.ErrInitFailed
	ErrStorageClose    = errors.ErrShutdownFailed
	ErrServiceShutdown = errors.ErrShutdownFailed

	ErrMetricsCollection = errors.ErrorCode("metrics_collection_failed")
	ErrInvalidMetrics    = errors.ErrorCode("metrics_invalid_snapshot")
	ErrOperationTimeout  = errors.ErrTimeout
)

// stepError wraps err with the storage step that failed.
func stepError(code errors.ErrorCode, step string, err error) errors.Error {
	return errors.New().Wrap(code, fmt.Errorf("%s: %w", step, err))
}
