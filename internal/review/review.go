// Copyright (c) 2026 Kritika. All rights reserved.

/*
Package review implements the review lifecycle and the derived work rating.

It owns the single most delicate invariant in Kritika: every work's persisted
rating equals the rounded mean of the review scores currently visible for it,
even while reviews are created, rescored, and deleted concurrently.

Core Responsibilities:

  - Reviews: One review per (work, author) pair, score 1..10, free text.
  - Aggregation: Recomputes the parent work's rating inside the same
    transaction as any review mutation.
  - Coordination: Runs every mutation as a SERIALIZABLE unit with a bounded
    retry loop for concurrency conflicts.

The one-review-per-author rule is enforced twice: a fast pre-check for a
friendly error message, and the UNIQUE (workid, authorid) constraint as the
source of truth under races.
*/
package review

import (
	"net/http"
	"time"

	"github.com/kritika-app/kritika/internal/platform/apperr"
)

// Review is a single user's scored opinion on a work.
type Review struct {
	ID       string `json:"id"`
	WorkID   string `json:"work_id"`
	AuthorID string `json:"author_id"`
	// Author is the review author's username, joined in for responses.
	Author    string    `json:"author"`
	Score     int       `json:"score"` // 1..10 inclusive
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MinScore and MaxScore bound the accepted review score range.
const (
	MinScore = 1
	MaxScore = 10
)

// # Domain Errors

// ErrDuplicateReview is returned when an author attempts a second review of
// the same work. It is a validation-class failure, not a 409, so clients
// handle it the same way as any other bad request.
func ErrDuplicateReview() *apperr.AppError {
	return &apperr.AppError{
		Code:       "DUPLICATE_REVIEW",
		Message:    "You have already reviewed this work",
		HTTPStatus: http.StatusBadRequest,
	}
}

// ErrReplaceNotAllowed is returned for full-replace (PUT) attempts on a
// review. Partial updates via PATCH are the only supported mutation shape.
func ErrReplaceNotAllowed() *apperr.AppError {
	return apperr.MethodNotAllowed("Full replace is not supported; use PATCH for partial updates")
}
