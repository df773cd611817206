package store

import "errors"

// Sentinel errors returned by repository methods. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrContactNotFound is returned when no row exists for the requested handle.
	ErrContactNotFound = errors.New("contact was not found")

	// ErrContactNotSaved is returned when an upsert completes without error
	// but reports zero affected rows.
	ErrContactNotSaved = errors.New("contact was not saved")

	// ErrTransient wraps driver errors that the dialect's classifier marks
	// as [Retryable].
	ErrTransient = errors.New("transient database error")

	// ErrEmptyHandle is returned when a repository method receives an empty handle.
	ErrEmptyHandle = errors.New("contact handle is empty")
)

// Low-level database operation errors.
var (
	// ErrBuildingSQLQuery is returned when squirrel fails to render a query.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing an INSERT or DELETE fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	ErrScanningRow  = errors.New("failed to scan contact row")
	ErrScanningRows = errors.New("failed to scan contact rows")
)

// ErrorClassification indicates whether a failed database operation should
// be retried or abandoned.
type ErrorClassification int

const (
	// NonRetryable is the default for unrecognised errors.
	NonRetryable ErrorClassification = iota

	// Retryable indicates that the operation may succeed if attempted again
	// (lock contention, lost connection, deadlock rollback).
	Retryable
)

// ErrorClassificator maps a driver error to an [ErrorClassification].
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
