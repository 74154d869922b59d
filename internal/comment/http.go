// Copyright (c) 2026 Kritika. All rights reserved.

package comment

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

// Handler implements the HTTP layer for comments, mounted under
// /works/{workID}/reviews/{reviewID}/comments.
type Handler struct {
	service *Service
}

// NewHandler constructs a comment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the comment endpoints.
//
// Reading is public; creating requires authentication; edits and deletes
// require authorship or at least [sec.RoleModerator]. PUT is rejected with
// 405 before any data access.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listComments)
	router.Get("/{commentID}", handler.getComment)

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)

		authed.Post("/", handler.createComment)
		authed.Patch("/{commentID}", handler.updateComment)
		authed.Delete("/{commentID}", handler.deleteComment)
	})

	router.Put("/{commentID}", handler.rejectReplace)

	return router
}

/*
GET /api/v1/works/{workID}/reviews/{reviewID}/comments.

Response:
  - 200: []Comment: Paginated list, oldest first
  - 404: 404: ErrNotFound: Review not found
*/
func (handler *Handler) listComments(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")
	reviewID := requestutil.ID(request, "reviewID")
	paginationParams := pagination.FromRequest(request)

	comments, total, err := handler.service.ListByReview(request.Context(), workID, reviewID, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, comments, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/works/{workID}/reviews/{reviewID}/comments/{commentID}.

Response:
  - 200: Comment: Success
  - 404: 404: ErrNotFound: Comment not found
*/
func (handler *Handler) getComment(writer http.ResponseWriter, request *http.Request) {
	reviewID := requestutil.ID(request, "reviewID")
	commentID := requestutil.ID(request, "commentID")

	comment, err := handler.service.Get(request.Context(), reviewID, commentID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comment)
}

// commentRequest defines the inbound JSON schema for create and update.
type commentRequest struct {
	Text string `json:"text"`
}

/*
POST /api/v1/works/{workID}/reviews/{reviewID}/comments.

Response:
  - 201: Comment: Created comment
  - 401: 401: ErrUnauthorized: Missing or invalid token
  - 404: 404: ErrNotFound: Review not found
*/
func (handler *Handler) createComment(writer http.ResponseWriter, request *http.Request) {
	workID := requestutil.ID(request, "workID")
	reviewID := requestutil.ID(request, "reviewID")

	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input commentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.service.Create(request.Context(), workID, reviewID, authorID, input.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, comment)
}

/*
PATCH /api/v1/works/{workID}/reviews/{reviewID}/comments/{commentID}.

Response:
  - 200: Comment: Updated comment
  - 403: 403: ErrForbidden: Not the author and below moderator
  - 404: 404: ErrNotFound: Comment not found
*/
func (handler *Handler) updateComment(writer http.ResponseWriter, request *http.Request) {
	reviewID := requestutil.ID(request, "reviewID")
	commentID := requestutil.ID(request, "commentID")

	if err := handler.authorizeMutation(request, reviewID, commentID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input commentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.service.Update(request.Context(), reviewID, commentID, input.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comment)
}

/*
DELETE /api/v1/works/{workID}/reviews/{reviewID}/comments/{commentID}.

Response:
  - 204: No Content: Success
  - 403: 403: ErrForbidden: Not the author and below moderator
  - 404: 404: ErrNotFound: Comment not found
*/
func (handler *Handler) deleteComment(writer http.ResponseWriter, request *http.Request) {
	reviewID := requestutil.ID(request, "reviewID")
	commentID := requestutil.ID(request, "commentID")

	if err := handler.authorizeMutation(request, reviewID, commentID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), reviewID, commentID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PUT /api/v1/works/{workID}/reviews/{reviewID}/comments/{commentID}.

Response:
  - 405: 405: METHOD_NOT_ALLOWED
*/
func (handler *Handler) rejectReplace(writer http.ResponseWriter, request *http.Request) {
	respond.Error(writer, request, apperr.MethodNotAllowed("Full replace is not supported; use PATCH for partial updates"))
}

// authorizeMutation enforces the author-or-moderator rule.
func (handler *Handler) authorizeMutation(request *http.Request, reviewID, commentID string) error {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return err
	}

	comment, err := handler.service.Get(request.Context(), reviewID, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID == claims.UserID {
		return nil
	}
	if sec.UserRole(claims.Role).AtLeast(sec.RoleModerator) {
		return nil
	}

	return apperr.Forbidden("Only the author or a moderator may modify this comment")
}
