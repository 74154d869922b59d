// Copyright (c) 2026 Kritika. All rights reserved.

package review

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/middleware"
	requestutil "github.com/kritika-app/kritika/internal/platform/request"
	"github.com/kritika-app/kritika/internal/platform/respond"
	"github.com/kritika-app/kritika/internal/platform/sec"
	"github.com/kritika-app/kritika/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for reviews, mounted under
// /works/{workID}/reviews.
type Handler struct {
	service *Service
}

// NewHandler constructs a review [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the review endpoints.
//
// # Routing Strategy
//
//   - Reading (Public): Anyone can browse reviews.
//   - Writing (Authenticated): Any signed-in user may create; edits and
//     deletes require authorship or at least [sec.RoleModerator], checked
//     per-request because the rule depends on the loaded row.
//   - PUT is rejected with 405 before any data is touched.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Reads
	router.Get("/", handler.listReviews)
	router.Get("/{reviewID}", handler.getReview)

	// ## Authenticated Writes
	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)

		authed.Post("/", handler.createReview)
		authed.Patch("/{reviewID}", handler.updateReview)
		authed.Delete("/{reviewID}", handler.deleteReview)
	})

	// ## Unsupported Shapes
	router.Put("/{reviewID}", handler.rejectReplace)

	return router
}

// # Review Endpoints

/*
GET /api/v1/works/{workID}/reviews.

Description: Retrieves a paginated list of the work's reviews, newest first.

Request:
  - page: int
  - limit: int

Response:
  - 200: []Review: Paginated list
  - 404: 404: ErrNotFound: Work not found
*/
func (handler *Handler) listReviews(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")
	paginationParams := pagination.FromRequest(request)

	reviews, total, err := handler.service.ListByWork(request.Context(), workID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, reviews, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/works/{workID}/reviews/{reviewID}.

Response:
  - 200: Review: Success
  - 404: 404: ErrNotFound: Review not found
*/
func (handler *Handler) getReview(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")
	reviewID := requestutil.ID(request, "reviewID")

	review, err := handler.service.Get(request.Context(), workID, reviewID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, review)
}

// # Request Payloads

// createReviewRequest defines the inbound JSON schema for review creation.
type createReviewRequest struct {
	Score int    `json:"score"`
	Text  string `json:"text"`
}

// updateReviewRequest defines the inbound JSON schema for partial updates.
// Absent fields keep their stored values.
type updateReviewRequest struct {
	Score *int    `json:"score"`
	Text  *string `json:"text"`
}

// # Mutation Endpoints

/*
POST /api/v1/works/{workID}/reviews.

Description: Submits the caller's review of the work. Each user may review a
work at most once; the work's rating is recomputed in the same transaction.

Request (Body):
  - score: int (1..10)
  - text: string

Response:
  - 201: Review: Created review
  - 400: 400: DUPLICATE_REVIEW/Validation: Second review or invalid score
  - 401: 401: ErrUnauthorized: Missing or invalid token
  - 404: 404: ErrNotFound: Work not found
  - 503: 503: TRANSIENT_CONFLICT: Concurrent conflict survived retries
*/
func (handler *Handler) createReview(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")

	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createReviewRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.service.Create(request.Context(), workID, authorID, input.Score, input.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, review)
}

/*
PATCH /api/v1/works/{workID}/reviews/{reviewID}.

Description: Applies a partial update (score and/or text). Allowed for the
review's author, moderators, and admins.

Request (Body):
  - score: *int (Optional)
  - text: *string (Optional)

Response:
  - 200: Review: Updated review
  - 403: 403: ErrForbidden: Not the author and below moderator
  - 404: 404: ErrNotFound: Review not found
  - 503: 503: TRANSIENT_CONFLICT: Concurrent conflict survived retries
*/
func (handler *Handler) updateReview(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")
	reviewID := requestutil.ID(request, "reviewID")

	if err := handler.authorizeMutation(request, workID, reviewID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateReviewRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.service.Update(request.Context(), workID, reviewID, input.Score, input.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, review)
}

/*
DELETE /api/v1/works/{workID}/reviews/{reviewID}.

Description: Removes the review and recomputes the work's rating. Allowed for
the review's author, moderators, and admins.

Response:
  - 204: No Content: Success
  - 403: 403: ErrForbidden: Not the author and below moderator
  - 404: 404: ErrNotFound: Review not found
  - 503: 503: TRANSIENT_CONFLICT: Concurrent conflict survived retries
*/
func (handler *Handler) deleteReview(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")
	reviewID := requestutil.ID(request, "reviewID")

	if err := handler.authorizeMutation(request, workID, reviewID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), workID, reviewID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PUT /api/v1/works/{workID}/reviews/{reviewID}.

Description: Full replace is deliberately unsupported. Rejected before any
data access.

Response:
  - 405: 405: METHOD_NOT_ALLOWED
*/
func (handler *Handler) rejectReplace(writer http.ResponseWriter, request *http.Request) {
	respond.Error(writer, request, ErrReplaceNotAllowed())
}

// # Authorization

// authorizeMutation enforces the author-or-moderator rule for PATCH/DELETE.
//
// The rule depends on the stored row's AuthorID, so it cannot live in the
// router-level role middleware.
func (handler *Handler) authorizeMutation(request *http.Request, workID, reviewID string) error {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return err
	}

	review, err := handler.service.Get(request.Context(), workID, reviewID)
	if err != nil {
		return err
	}

	if review.AuthorID == claims.UserID {
		return nil
	}
	if sec.UserRole(claims.Role).AtLeast(sec.RoleModerator) {
		return nil
	}

	return apperr.Forbidden("Only the author or a moderator may modify this review")
}
