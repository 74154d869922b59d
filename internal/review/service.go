// Copyright (c) 2026 Kritika. All rights reserved.

package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/dberr"
	"github.com/kritika-app/kritika/internal/platform/validate"
	"github.com/kritika-app/kritika/pkg/pointer"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// maxAttempts bounds how many times a conflicted atomic unit is retried
// before the failure surfaces to the client as a 503.
const maxAttempts = 3

// # Service Layer

// Service coordinates review mutations and the rating aggregation that must
// travel with them.
//
// # Atomicity
//
// Every mutation (create, rescore, delete) runs as mutation + Recompute inside
// one SERIALIZABLE transaction. Concurrency conflicts (SQLSTATE 40001/40P01)
// retry the whole unit up to [maxAttempts] times; any other failure inside the
// unit rolls everything back, including a failed aggregation after a
// successful mutation statement.
type Service struct {
	store      Store
	aggregator Aggregator
	logger     *slog.Logger
}

// NewService constructs a review [Service].
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// # Lookups

// ListByWork retrieves a page of a work's reviews, newest first.
func (service *Service) ListByWork(ctx context.Context, workID string, limit, offset int) ([]*Review, int, error) {
	exists, err := service.store.WorkExists(ctx, workID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, apperr.NotFound("Work")
	}

	return service.store.ListByWork(ctx, workID, limit, offset)
}

// Get retrieves a single review scoped to its work.
func (service *Service) Get(ctx context.Context, workID, reviewID string) (*Review, error) {
	return service.store.FindByID(ctx, workID, reviewID)
}

// # Mutations

/*
Create submits a new review for a work and recomputes the work's rating.

Description: Validates the score range, verifies the work exists, performs the
fast duplicate pre-check, then runs insert + recompute as one serializable
unit. A unique-constraint violation racing past the pre-check is mapped to the
same duplicate error, so callers cannot tell the two paths apart.

Parameters:
  - ctx: context.Context
  - workID: string (UUID of the reviewed work)
  - authorID: string (UUID of the authenticated author)
  - score: int (1..10 inclusive)
  - text: string (Review body)

Returns:
  - *Review: The persisted review
  - error: Validation, NotFound, DUPLICATE_REVIEW, or TRANSIENT_CONFLICT
*/
func (service *Service) Create(ctx context.Context, workID, authorID string, score int, text string) (*Review, error) {
	v := &validate.Validator{}
	v.Range("score", score, MinScore, MaxScore).
		Required("text", text).MaxLen("text", text, 10000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	exists, err := service.store.WorkExists(ctx, workID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("Work")
	}

	// Fast pre-check for a friendly error without burning a transaction.
	taken, err := service.store.HasReviewByAuthor(ctx, workID, authorID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateReview()
	}

	now := time.Now()
	review := &Review{
		ID:        uuidv7.New(),
		WorkID:    workID,
		AuthorID:  authorID,
		Score:     score,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = service.runAtomic(ctx, func(ops AtomicOps) error {
		if err := ops.InsertReview(ctx, review); err != nil {
			return err
		}

		_, err := service.aggregator.Recompute(ctx, ops, workID)
		return err
	})

	if err != nil {
		// The constraint is the source of truth: a race past the pre-check
		// surfaces here and must look identical to the fast path.
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview()
		}
		return nil, dberr.Wrap(err, "review_create")
	}

	return review, nil
}

/*
Update applies a partial update (score and/or text) to a review and recomputes
the parent work's rating.

Description: Authorization (author, moderator, or admin) is enforced by the
handler layer before this runs. Read-modify-write and recompute happen inside
one serializable unit, so two concurrent rescores serialize and the final
rating reflects both.

Parameters:
  - ctx: context.Context
  - workID: string (UUID of the parent work, from the URL)
  - reviewID: string (UUID of the target review)
  - score: *int (New score, nil to keep)
  - text: *string (New text, nil to keep)

Returns:
  - *Review: The updated review
  - error: Validation, NotFound, or TRANSIENT_CONFLICT
*/
func (service *Service) Update(ctx context.Context, workID, reviewID string, score *int, text *string) (*Review, error) {
	if score != nil {
		v := &validate.Validator{}
		v.Range("score", *score, MinScore, MaxScore)
		if err := v.Err(); err != nil {
			return nil, err
		}
	}
	if text != nil {
		v := &validate.Validator{}
		v.Required("text", *text).MaxLen("text", *text, 10000)
		if err := v.Err(); err != nil {
			return nil, err
		}
	}

	var updated *Review

	err := service.runAtomic(ctx, func(ops AtomicOps) error {
		review, err := ops.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.WorkID != workID {
			return apperr.NotFound("Review")
		}

		review.Score = pointer.Fallback(score, review.Score)
		review.Text = pointer.Fallback(text, review.Text)
		review.UpdatedAt = time.Now()

		if err := ops.UpdateReview(ctx, review); err != nil {
			return err
		}

		if _, err := service.aggregator.Recompute(ctx, ops, review.WorkID); err != nil {
			return err
		}

		updated = review
		return nil
	})

	if err != nil {
		return nil, dberr.Wrap(err, "review_update")
	}

	return updated, nil
}

/*
Delete removes a review and recomputes the parent work's rating.

Description: The parent work ID is captured from the row before deletion, then
delete + recompute run in the same serializable unit. Deleting the last review
of a work leaves its rating at 0.

Parameters:
  - ctx: context.Context
  - workID: string (UUID of the parent work, from the URL)
  - reviewID: string (UUID of the target review)

Returns:
  - error: NotFound or TRANSIENT_CONFLICT
*/
func (service *Service) Delete(ctx context.Context, workID, reviewID string) error {
	err := service.runAtomic(ctx, func(ops AtomicOps) error {
		review, err := ops.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.WorkID != workID {
			return apperr.NotFound("Review")
		}

		if err := ops.DeleteReview(ctx, reviewID); err != nil {
			return err
		}

		_, err = service.aggregator.Recompute(ctx, ops, review.WorkID)
		return err
	})

	if err != nil {
		return dberr.Wrap(err, "review_delete")
	}

	return nil
}

// # Retry Loop

// runAtomic executes fn through the store's serializable transaction,
// retrying the whole unit on transient concurrency conflicts.
//
// Retries are bounded and whole-unit only; there is no per-statement retry.
// Non-retryable errors return immediately, classification untouched.
func (service *Service) runAtomic(ctx context.Context, fn func(ops AtomicOps) error) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := service.store.Atomic(ctx, fn)
		if err == nil {
			return nil
		}
		if !dberr.IsRetryable(err) {
			return err
		}

		lastErr = err
		service.logger.WarnContext(ctx, "review_unit_serialization_conflict",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
		)
	}

	return apperr.TransientConflict(lastErr)
}
