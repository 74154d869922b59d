// Copyright (c) 2026 Kritika. All rights reserved.

package comment

import "context"

// Store defines the data access contract for comments.
//
// All methods classify storage errors into apperr values before returning.
type Store interface {
	// ReviewExists reports whether the review exists under the given work.
	ReviewExists(ctx context.Context, workID, reviewID string) (bool, error)

	// FindByID returns the comment scoped to its review, author joined in.
	FindByID(ctx context.Context, reviewID, commentID string) (*Comment, error)

	// ListByReview returns a page of the review's comments, oldest first,
	// plus the total count.
	ListByReview(ctx context.Context, reviewID string, limit, offset int) ([]*Comment, int, error)

	// Create persists a new comment.
	Create(ctx context.Context, comment *Comment) error

	// Update persists the comment's text.
	Update(ctx context.Context, comment *Comment) error

	// Delete removes the comment.
	Delete(ctx context.Context, commentID string) error
}
