package archive

import "github.com/markpostal/kiln-watch/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("archive_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("archive_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("archive_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("archive_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("archive_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrorCode("archive_storage_init_failed")
	ErrStorageClose = errors.ErrorCode("archive_storage_close_failed")

	// Service Errors
	ErrServiceShutdown = errors.ErrShutdownFailed
	ErrRecordFailed    = errors.ErrorCode("archive_record_failed")
	ErrInvalidEntry    = errors.ErrorCode("archive_invalid_entry")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
