// Copyright (c) 2026 Kritika. All rights reserved.

package review

import "context"

// # Review Data Access

// AtomicOps is the data-access surface available inside one atomic unit.
//
// Every method runs on the same SERIALIZABLE transaction; nothing is visible
// to other sessions until the unit commits.
type AtomicOps interface {
	AggregateOps

	/*
		GetReview returns the review with the given ID.

		Returns:
		  - *Review: The hydrated entity
		  - error: Raw storage error (pgx.ErrNoRows if missing)
	*/
	GetReview(ctx context.Context, reviewID string) (*Review, error)

	/*
		InsertReview persists a new review row.

		Returns:
		  - error: Raw storage error. A UNIQUE (workid, authorid) violation is
		    returned unclassified so the coordinator can map it.
	*/
	InsertReview(ctx context.Context, review *Review) error

	/*
		UpdateReview persists the review's mutable fields (score, text).

		Returns:
		  - error: Raw storage error (pgx.ErrNoRows if the review vanished)
	*/
	UpdateReview(ctx context.Context, review *Review) error

	/*
		DeleteReview removes the review row.

		Returns:
		  - error: Raw storage error (pgx.ErrNoRows if already gone)
	*/
	DeleteReview(ctx context.Context, reviewID string) error
}

// Store defines the data access contract for the review domain.
//
// # Error Convention
//
// The read-side methods classify storage errors into [apperr.AppError] before
// returning. Atomic deliberately does NOT: it hands the raw error chain back
// so the coordinator can distinguish unique violations and serialization
// failures before deciding to retry, re-map, or surface.
type Store interface {

	/*
		FindByID returns the review with the given ID, scoped to the work.

		Returns:
		  - *Review: The hydrated entity with the author username joined in
		  - error: apperr.NotFound if missing
	*/
	FindByID(ctx context.Context, workID, reviewID string) (*Review, error)

	/*
		ListByWork returns a page of the work's reviews and the total count.

		Returns:
		  - []*Review: Newest first
		  - int: Total review count for the work
		  - error: Storage failures
	*/
	ListByWork(ctx context.Context, workID string, limit, offset int) ([]*Review, int, error)

	/*
		HasReviewByAuthor reports whether the author already reviewed the work.

		This is the fast duplicate pre-check only; the UNIQUE constraint
		remains the source of truth under concurrent creation.
	*/
	HasReviewByAuthor(ctx context.Context, workID, authorID string) (bool, error)

	/*
		WorkExists reports whether the target work exists.
	*/
	WorkExists(ctx context.Context, workID string) (bool, error)

	/*
		Atomic runs fn inside a single SERIALIZABLE transaction.

		Every operation issued through the provided [AtomicOps] commits or
		rolls back as one unit. The raw error from fn or from COMMIT is
		returned unclassified.
	*/
	Atomic(ctx context.Context, fn func(ops AtomicOps) error) error
}
