// Copyright (c) 2026 Kritika. All rights reserved.

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Classification
//
// The review mutation path depends on precise SQLSTATE classification:
// unique-constraint violations become client-visible duplicates, while
// serialization failures and deadlocks are retryable and must never leak
// to the client as generic 500s.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kritika-app/kritika/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// Already classified upstream; never double-wrap.
	if ae := apperr.As(err); ae != nil {
		return ae
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// A malformed identifier (e.g. a non-UUID path segment reaching a uuid
	// column) can never match a row, so the client sees the same NotFound as
	// a well-formed id that simply does not exist.
	if IsInvalidTextRepresentation(err) {
		return ErrNotFound
	}

	if IsUniqueViolation(err) {
		return apperr.Conflict("Resource already exists")
	}

	if IsSerializationFailure(err) {
		// Callers that own a retry loop check for this before surfacing.
		return apperr.TransientConflict(err)
	}

	// Unknown query errors become Internal Server Errors.
	return apperr.Internal(err)
}

// IsInvalidTextRepresentation reports whether err is a PostgreSQL input
// syntax error (SQLSTATE 22P02), raised when a parameter cannot be cast to
// its column type, such as a malformed UUID.
func IsInvalidTextRepresentation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsSerializationFailure reports whether err is a retryable concurrency
// conflict: a serialization failure (40001) or a deadlock (40P01).
//
// Under SERIALIZABLE isolation PostgreSQL aborts one of two conflicting
// transactions with 40001; the aborted unit must be retried as a whole.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure ||
		pgErr.Code == pgerrcode.DeadlockDetected
}

// IsRetryable reports whether the wrapped error chain contains a transient
// conflict that warrants retrying the whole atomic unit.
func IsRetryable(err error) bool {
	if IsSerializationFailure(err) {
		return true
	}
	ae := apperr.As(err)
	return ae != nil && ae.Code == "TRANSIENT_CONFLICT"
}
