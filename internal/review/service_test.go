// Copyright (c) 2026 Kritika. All rights reserved.

package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/pkg/pointer"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// # In-Memory Fake Store

// fakeState is the committed database snapshot.
type fakeState struct {
	ratings map[string]float64 // workID -> persisted rating
	reviews map[string]*Review // reviewID -> row
}

func (state *fakeState) clone() *fakeState {
	cloned := &fakeState{
		ratings: make(map[string]float64, len(state.ratings)),
		reviews: make(map[string]*Review, len(state.reviews)),
	}
	for id, rating := range state.ratings {
		cloned.ratings[id] = rating
	}
	for id, review := range state.reviews {
		copied := *review
		cloned.reviews[id] = &copied
	}
	return cloned
}

// fakeStore mimics the serializable-transaction contract: Atomic mutates a
// clone and swaps it in only on success, so a failed unit leaves the
// committed state untouched.
type fakeStore struct {
	state *fakeState

	// conflictsLeft injects SQLSTATE 40001 failures for the next N units.
	conflictsLeft int
	// failSetRating forces the aggregation write to fail.
	failSetRating error
	// hideDuplicate makes the fast pre-check miss, simulating the race where
	// two creates pass the pre-check and the constraint decides.
	hideDuplicate bool

	atomicCalls int
}

func newFakeStore(workIDs ...string) *fakeStore {
	state := &fakeState{
		ratings: make(map[string]float64),
		reviews: make(map[string]*Review),
	}
	for _, workID := range workIDs {
		state.ratings[workID] = 0
	}
	return &fakeStore{state: state}
}

func (store *fakeStore) FindByID(_ context.Context, workID, reviewID string) (*Review, error) {
	review, ok := store.state.reviews[reviewID]
	if !ok || review.WorkID != workID {
		return nil, apperr.NotFound("Review")
	}
	copied := *review
	return &copied, nil
}

func (store *fakeStore) ListByWork(_ context.Context, workID string, limit, offset int) ([]*Review, int, error) {
	var matched []*Review
	for _, review := range store.state.reviews {
		if review.WorkID == workID {
			copied := *review
			matched = append(matched, &copied)
		}
	}
	return matched, len(matched), nil
}

func (store *fakeStore) HasReviewByAuthor(_ context.Context, workID, authorID string) (bool, error) {
	if store.hideDuplicate {
		return false, nil
	}
	for _, review := range store.state.reviews {
		if review.WorkID == workID && review.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (store *fakeStore) WorkExists(_ context.Context, workID string) (bool, error) {
	_, ok := store.state.ratings[workID]
	return ok, nil
}

func (store *fakeStore) Atomic(_ context.Context, fn func(ops AtomicOps) error) error {
	store.atomicCalls++

	if store.conflictsLeft > 0 {
		store.conflictsLeft--
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	}

	staged := store.state.clone()
	if err := fn(&fakeOps{state: staged, store: store}); err != nil {
		return err
	}

	store.state = staged
	return nil
}

// fakeOps applies mutations to the staged snapshot only.
type fakeOps struct {
	state *fakeState
	store *fakeStore
}

func (ops *fakeOps) GetReview(_ context.Context, reviewID string) (*Review, error) {
	review, ok := ops.state.reviews[reviewID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *review
	return &copied, nil
}

func (ops *fakeOps) InsertReview(_ context.Context, review *Review) error {
	for _, existing := range ops.state.reviews {
		if existing.WorkID == review.WorkID && existing.AuthorID == review.AuthorID {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		}
	}
	copied := *review
	ops.state.reviews[review.ID] = &copied
	return nil
}

func (ops *fakeOps) UpdateReview(_ context.Context, review *Review) error {
	if _, ok := ops.state.reviews[review.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *review
	ops.state.reviews[review.ID] = &copied
	return nil
}

func (ops *fakeOps) DeleteReview(_ context.Context, reviewID string) error {
	if _, ok := ops.state.reviews[reviewID]; !ok {
		return pgx.ErrNoRows
	}
	delete(ops.state.reviews, reviewID)
	return nil
}

func (ops *fakeOps) ListScores(_ context.Context, workID string) ([]int, error) {
	var scores []int
	for _, review := range ops.state.reviews {
		if review.WorkID == workID {
			scores = append(scores, review.Score)
		}
	}
	return scores, nil
}

func (ops *fakeOps) SetWorkRating(_ context.Context, workID string, rating float64) error {
	if ops.store.failSetRating != nil {
		return ops.store.failSetRating
	}
	if _, ok := ops.state.ratings[workID]; !ok {
		return apperr.NotFound("Work")
	}
	ops.state.ratings[workID] = rating
	return nil
}

// # Test Helpers

func newTestService(store *fakeStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger)
}

func seedReview(store *fakeStore, workID, authorID string, score int) *Review {
	review := &Review{
		ID:        uuidv7.New(),
		WorkID:    workID,
		AuthorID:  authorID,
		Score:     score,
		Text:      "seeded",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.state.reviews[review.ID] = review

	scores := make([]int, 0)
	for _, existing := range store.state.reviews {
		if existing.WorkID == workID {
			scores = append(scores, existing.Score)
		}
	}
	store.state.ratings[workID] = MeanRating(scores)

	return review
}

// # Aggregator Tests

func TestAggregator_RecomputeIsIdempotent(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	seedReview(store, workID, uuidv7.New(), 8)
	seedReview(store, workID, uuidv7.New(), 10)

	ops := &fakeOps{state: store.state, store: store}
	aggregator := Aggregator{}

	first, err := aggregator.Recompute(context.Background(), ops, workID)
	require.NoError(t, err)

	second, err := aggregator.Recompute(context.Background(), ops, workID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 9.00, store.state.ratings[workID], 0.0001)
}

func TestAggregator_MissingWorkIsNotFound(t *testing.T) {
	store := newFakeStore()
	ops := &fakeOps{state: store.state, store: store}

	_, err := Aggregator{}.Recompute(context.Background(), ops, uuidv7.New())

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// # Create Tests

func TestService_Create_PersistsReviewAndRating(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	service := newTestService(store)

	first, err := service.Create(context.Background(), workID, uuidv7.New(), 8, "strong opening act")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.InDelta(t, 8.00, store.state.ratings[workID], 0.0001)

	_, err = service.Create(context.Background(), workID, uuidv7.New(), 10, "masterpiece")
	require.NoError(t, err)
	assert.InDelta(t, 9.00, store.state.ratings[workID], 0.0001)
}

func TestService_Create_ScoreBoundaries(t *testing.T) {
	testCases := []struct {
		score   int
		allowed bool
	}{
		{score: 0, allowed: false},
		{score: 1, allowed: true},
		{score: 10, allowed: true},
		{score: 11, allowed: false},
	}

	for _, testCase := range testCases {
		workID := uuidv7.New()
		store := newFakeStore(workID)
		service := newTestService(store)

		_, err := service.Create(context.Background(), workID, uuidv7.New(), testCase.score, "boundary probe")

		if testCase.allowed {
			assert.NoError(t, err, "score %d should be accepted", testCase.score)
		} else {
			appError := apperr.As(err)
			require.NotNil(t, appError, "score %d should be rejected", testCase.score)
			assert.Equal(t, "VALIDATION_ERROR", appError.Code)
			assert.Empty(t, store.state.reviews, "rejected score must not persist")
		}
	}
}

func TestService_Create_RejectsSecondReview(t *testing.T) {
	workID := uuidv7.New()
	authorID := uuidv7.New()
	store := newFakeStore(workID)
	service := newTestService(store)

	_, err := service.Create(context.Background(), workID, authorID, 7, "first take")
	require.NoError(t, err)

	_, err = service.Create(context.Background(), workID, authorID, 9, "changed my mind")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "DUPLICATE_REVIEW", appError.Code)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
	assert.Len(t, store.state.reviews, 1)
	assert.InDelta(t, 7.00, store.state.ratings[workID], 0.0001)
}

// Two concurrent creates can both pass the pre-check; the unique constraint
// must still produce the same duplicate error.
func TestService_Create_ConstraintBacksStopsRace(t *testing.T) {
	workID := uuidv7.New()
	authorID := uuidv7.New()
	store := newFakeStore(workID)
	service := newTestService(store)

	seedReview(store, workID, authorID, 7)
	store.hideDuplicate = true

	_, err := service.Create(context.Background(), workID, authorID, 9, "racing write")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "DUPLICATE_REVIEW", appError.Code)
	assert.Len(t, store.state.reviews, 1)
}

func TestService_Create_MissingWork(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	_, err := service.Create(context.Background(), uuidv7.New(), uuidv7.New(), 5, "into the void")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// # Atomicity Tests

func TestService_Create_AggregationFailureRollsBackInsert(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	seedReview(store, workID, uuidv7.New(), 6)
	service := newTestService(store)

	store.failSetRating = errors.New("rating write refused")

	_, err := service.Create(context.Background(), workID, uuidv7.New(), 10, "doomed unit")

	require.Error(t, err)
	assert.Len(t, store.state.reviews, 1, "insert must roll back with the failed aggregation")
	assert.InDelta(t, 6.00, store.state.ratings[workID], 0.0001, "rating must be untouched")
}

func TestService_Delete_LastReviewLeavesZero(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	seeded := seedReview(store, workID, uuidv7.New(), 9)
	service := newTestService(store)

	require.NoError(t, service.Delete(context.Background(), workID, seeded.ID))

	assert.Empty(t, store.state.reviews)
	assert.InDelta(t, 0, store.state.ratings[workID], 0.0001)
}

func TestService_Update_RecomputesRating(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	first := seedReview(store, workID, uuidv7.New(), 2)
	second := seedReview(store, workID, uuidv7.New(), 2)
	service := newTestService(store)

	_, err := service.Update(context.Background(), workID, first.ID, pointer.To(8), nil)
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), workID, second.ID, pointer.To(10), pointer.To("rescored"))
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Score)
	assert.Equal(t, "rescored", updated.Text)

	assert.InDelta(t, 9.00, store.state.ratings[workID], 0.0001)
}

func TestService_Update_WrongWorkIsNotFound(t *testing.T) {
	workID := uuidv7.New()
	otherWorkID := uuidv7.New()
	store := newFakeStore(workID, otherWorkID)
	seeded := seedReview(store, workID, uuidv7.New(), 5)
	service := newTestService(store)

	_, err := service.Update(context.Background(), otherWorkID, seeded.ID, pointer.To(9), nil)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// # Retry Tests

func TestService_RetriesTransientConflicts(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	service := newTestService(store)

	store.conflictsLeft = 2

	_, err := service.Create(context.Background(), workID, uuidv7.New(), 7, "persistent client")

	require.NoError(t, err)
	assert.Equal(t, 3, store.atomicCalls, "two conflicts then success")
	assert.InDelta(t, 7.00, store.state.ratings[workID], 0.0001)
}

func TestService_SurfacesConflictAfterBoundedRetries(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	service := newTestService(store)

	store.conflictsLeft = maxAttempts

	_, err := service.Create(context.Background(), workID, uuidv7.New(), 7, "unlucky client")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "TRANSIENT_CONFLICT", appError.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appError.HTTPStatus)
	assert.Equal(t, maxAttempts, store.atomicCalls)
	assert.Empty(t, store.state.reviews, "nothing may persist from aborted units")
}
