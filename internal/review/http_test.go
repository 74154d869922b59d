// Copyright (c) 2026 Kritika. All rights reserved.

package review

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// # Handler Tests

func TestRoutes_FullReplaceIsRejectedUntouched(t *testing.T) {
	workID := uuidv7.New()
	store := newFakeStore(workID)
	seeded := seedReview(store, workID, uuidv7.New(), 7)

	router := chi.NewRouter()
	router.Mount("/works/{workID}/reviews", NewHandler(newTestService(store)).Routes())

	target := "/works/" + workID + "/reviews/" + seeded.ID
	request := httptest.NewRequest(http.MethodPut, target, strings.NewReader(`{"score":10,"text":"replaced"}`))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)

	// The handler rejects the shape before any data access.
	assert.Zero(t, store.atomicCalls)
	assert.Equal(t, 7, store.state.reviews[seeded.ID].Score)
	assert.InDelta(t, 7.00, store.state.ratings[workID], 0.0001)
}
