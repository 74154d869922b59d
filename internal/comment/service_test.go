// Copyright (c) 2026 Kritika. All rights reserved.

package comment

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

type fakeStore struct {
	reviews  map[string]string   // reviewID -> workID
	comments map[string]*Comment // commentID -> row
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews:  make(map[string]string),
		comments: make(map[string]*Comment),
	}
}

func (store *fakeStore) ReviewExists(_ context.Context, workID, reviewID string) (bool, error) {
	owner, ok := store.reviews[reviewID]
	return ok && owner == workID, nil
}

func (store *fakeStore) FindByID(_ context.Context, reviewID, commentID string) (*Comment, error) {
	comment, ok := store.comments[commentID]
	if !ok || comment.ReviewID != reviewID {
		return nil, apperr.NotFound("Comment")
	}
	copied := *comment
	return &copied, nil
}

func (store *fakeStore) ListByReview(_ context.Context, reviewID string, limit, offset int) ([]*Comment, int, error) {
	var matched []*Comment
	for _, comment := range store.comments {
		if comment.ReviewID == reviewID {
			copied := *comment
			matched = append(matched, &copied)
		}
	}
	return matched, len(matched), nil
}

func (store *fakeStore) Create(_ context.Context, comment *Comment) error {
	copied := *comment
	store.comments[comment.ID] = &copied
	return nil
}

func (store *fakeStore) Update(_ context.Context, comment *Comment) error {
	if _, ok := store.comments[comment.ID]; !ok {
		return apperr.NotFound("Comment")
	}
	copied := *comment
	store.comments[comment.ID] = &copied
	return nil
}

func (store *fakeStore) Delete(_ context.Context, commentID string) error {
	if _, ok := store.comments[commentID]; !ok {
		return apperr.NotFound("Comment")
	}
	delete(store.comments, commentID)
	return nil
}

func seedReview(store *fakeStore) (workID, reviewID string) {
	workID = uuidv7.New()
	reviewID = uuidv7.New()
	store.reviews[reviewID] = workID
	return workID, reviewID
}

func TestService_Create(t *testing.T) {
	store := newFakeStore()
	workID, reviewID := seedReview(store)
	service := NewService(store)

	comment, err := service.Create(context.Background(), workID, reviewID, uuidv7.New(), "completely agree")

	require.NoError(t, err)
	assert.Equal(t, reviewID, comment.ReviewID)
	assert.Len(t, store.comments, 1)
}

func TestService_Create_EmptyText(t *testing.T) {
	store := newFakeStore()
	workID, reviewID := seedReview(store)
	service := NewService(store)

	_, err := service.Create(context.Background(), workID, reviewID, uuidv7.New(), "   ")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

func TestService_Create_MissingReview(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)

	_, err := service.Create(context.Background(), uuidv7.New(), uuidv7.New(), uuidv7.New(), "into the void")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// A review ID under the wrong work must behave as missing.
func TestService_Create_ReviewUnderWrongWork(t *testing.T) {
	store := newFakeStore()
	_, reviewID := seedReview(store)
	service := NewService(store)

	_, err := service.Create(context.Background(), uuidv7.New(), reviewID, uuidv7.New(), "misrouted")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

func TestService_Update(t *testing.T) {
	store := newFakeStore()
	workID, reviewID := seedReview(store)
	service := NewService(store)

	created, err := service.Create(context.Background(), workID, reviewID, uuidv7.New(), "first draft")
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), reviewID, created.ID, "second draft")

	require.NoError(t, err)
	assert.Equal(t, "second draft", updated.Text)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestService_Delete_Missing(t *testing.T) {
	store := newFakeStore()
	_, reviewID := seedReview(store)
	service := NewService(store)

	err := service.Delete(context.Background(), reviewID, uuidv7.New())

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}
