// Copyright (c) 2026 Kritika. All rights reserved.

package comment

import (
	"context"
	"time"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/validate"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// Service orchestrates the comment lifecycle.
type Service struct {
	store Store
}

// NewService constructs a comment [Service].
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListByReview retrieves a page of a review's comments, oldest first.
func (service *Service) ListByReview(ctx context.Context, workID, reviewID string, limit, offset int) ([]*Comment, int, error) {
	exists, err := service.store.ReviewExists(ctx, workID, reviewID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, apperr.NotFound("Review")
	}

	return service.store.ListByReview(ctx, reviewID, limit, offset)
}

// Get retrieves a single comment scoped to its review.
func (service *Service) Get(ctx context.Context, reviewID, commentID string) (*Comment, error) {
	return service.store.FindByID(ctx, reviewID, commentID)
}

// Create attaches a new comment to a review.
func (service *Service) Create(ctx context.Context, workID, reviewID, authorID, text string) (*Comment, error) {
	v := &validate.Validator{}
	v.Required("text", text).MaxLen("text", text, 5000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	exists, err := service.store.ReviewExists(ctx, workID, reviewID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("Review")
	}

	now := time.Now()
	comment := &Comment{
		ID:        uuidv7.New(),
		ReviewID:  reviewID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := service.store.Create(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// Update replaces the comment's text.
func (service *Service) Update(ctx context.Context, reviewID, commentID, text string) (*Comment, error) {
	v := &validate.Validator{}
	v.Required("text", text).MaxLen("text", text, 5000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	comment, err := service.store.FindByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	comment.UpdatedAt = time.Now()

	if err := service.store.Update(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// Delete removes a comment.
func (service *Service) Delete(ctx context.Context, reviewID, commentID string) error {
	if _, err := service.store.FindByID(ctx, reviewID, commentID); err != nil {
		return err
	}

	return service.store.Delete(ctx, commentID)
}
