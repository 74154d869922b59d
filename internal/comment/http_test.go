// Copyright (c) 2026 Kritika. All rights reserved.

package comment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/pkg/uuidv7"
)

func TestRoutes_FullReplaceIsRejectedUntouched(t *testing.T) {
	store := newFakeStore()
	workID, reviewID := seedReview(store)
	seeded := &Comment{
		ID:        uuidv7.New(),
		ReviewID:  reviewID,
		AuthorID:  uuidv7.New(),
		Text:      "original",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.comments[seeded.ID] = seeded

	router := chi.NewRouter()
	router.Mount("/works/{workID}/reviews/{reviewID}/comments", NewHandler(NewService(store)).Routes())

	target := "/works/" + workID + "/reviews/" + reviewID + "/comments/" + seeded.ID
	request := httptest.NewRequest(http.MethodPut, target, strings.NewReader(`{"text":"replaced"}`))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)

	// The handler rejects the shape before any data access.
	assert.Len(t, store.comments, 1)
	assert.Equal(t, "original", store.comments[seeded.ID].Text)
}
