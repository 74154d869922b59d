// Copyright (c) 2026 Kritika. All rights reserved.

package catalog

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

func TestWorkRoutes_FullReplaceIsRejectedUntouched(t *testing.T) {
	service, _, works := newTestService()
	seeded := &Work{
		ID:   uuidv7.New(),
		Name: "Solaris",
		Year: 1972,
	}
	works.works[seeded.ID] = seeded

	router := chi.NewRouter()
	router.Mount("/works", NewHandler(service).WorkRoutes())

	target := "/works/" + seeded.ID
	request := httptest.NewRequest(http.MethodPut, target, strings.NewReader(`{"name":"replaced","year":2020}`))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)

	// The handler rejects the shape before any data access.
	assert.Len(t, works.works, 1)
	assert.Equal(t, "Solaris", works.works[seeded.ID].Name)
	assert.Equal(t, 1972, works.works[seeded.ID].Year)
}
