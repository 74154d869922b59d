// Copyright (c) 2026 Kritika. All rights reserved.

package dberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/internal/platform/apperr"
)

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func TestWrap_Classification(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "no rows is not found",
			err:        pgx.ErrNoRows,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrapped no rows is not found",
			err:        fmt.Errorf("find work: %w", pgx.ErrNoRows),
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed uuid is not found",
			err:        pgError(pgerrcode.InvalidTextRepresentation),
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unique violation is conflict",
			err:        pgError(pgerrcode.UniqueViolation),
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "serialization failure is transient conflict",
			err:        pgError(pgerrcode.SerializationFailure),
			wantCode:   "TRANSIENT_CONFLICT",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "deadlock is transient conflict",
			err:        pgError(pgerrcode.DeadlockDetected),
			wantCode:   "TRANSIENT_CONFLICT",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown errors are internal",
			err:        errors.New("connection reset"),
			wantCode:   "INTERNAL_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			wrapped := Wrap(testCase.err, "query work")

			appError := apperr.As(wrapped)
			require.NotNil(t, appError)
			assert.Equal(t, testCase.wantCode, appError.Code)
			assert.Equal(t, testCase.wantStatus, appError.HTTPStatus)
		})
	}
}

func TestWrap_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Wrap(nil, "query work"))
}

func TestWrap_KeepsExistingClassification(t *testing.T) {
	original := apperr.Forbidden("Only the author may modify this review")

	wrapped := Wrap(original, "update review")

	require.Same(t, original, apperr.As(wrapped))
}

func TestIsInvalidTextRepresentation(t *testing.T) {
	assert.True(t, IsInvalidTextRepresentation(pgError(pgerrcode.InvalidTextRepresentation)))
	assert.True(t, IsInvalidTextRepresentation(fmt.Errorf("scan: %w", pgError(pgerrcode.InvalidTextRepresentation))))
	assert.False(t, IsInvalidTextRepresentation(pgError(pgerrcode.UniqueViolation)))
	assert.False(t, IsInvalidTextRepresentation(errors.New("not a pg error")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(pgError(pgerrcode.SerializationFailure)))
	assert.True(t, IsRetryable(pgError(pgerrcode.DeadlockDetected)))
	assert.True(t, IsRetryable(apperr.TransientConflict(pgError(pgerrcode.SerializationFailure))))
	assert.False(t, IsRetryable(pgError(pgerrcode.UniqueViolation)))
	assert.False(t, IsRetryable(pgx.ErrNoRows))
}
