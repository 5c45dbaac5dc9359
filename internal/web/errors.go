package web

import (
	"errors"

	"github.com/cabewaldrop/claude-db/internal/errs"
)

// GetErrorHint returns a short suggestion for a failed query, matched against the
// typed error kind the executor returned rather than the message text.
func GetErrorHint(err error) string {
	var noSuchTable *errs.NoSuchTableError
	if errors.As(err, &noSuchTable) {
		return "Check table name spelling or run SHOW TABLES to see available tables."
	}
	var noSuchColumn *errs.NoSuchColumnError
	if errors.As(err, &noSuchColumn) {
		return "Check column name or run SHOW COLUMNS FROM <table> to see columns."
	}
	var noSuchIndex *errs.NoSuchIndexError
	if errors.As(err, &noSuchIndex) {
		return "Check index name or run SHOW INDEX FROM <table> to see indices."
	}
	var duplicateKey *errs.DuplicateKeyError
	if errors.As(err, &duplicateKey) {
		return "A row with this key already exists."
	}
	var schemaViolation *errs.SchemaViolationError
	if errors.As(err, &schemaViolation) {
		return "The values given don't match the table's column types."
	}
	var notImplemented *errs.NotImplementedError
	if errors.As(err, &notImplemented) {
		return "This operation is not supported."
	}
	return ""
}
