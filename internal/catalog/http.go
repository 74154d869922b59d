// Copyright (c) 2026 Kritika. All rights reserved.

package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/middleware"
	requestutil "github.com/kritika-app/kritika/internal/platform/request"
	"github.com/kritika-app/kritika/internal/platform/respond"
	"github.com/kritika-app/kritika/internal/platform/sec"
	"github.com/kritika-app/kritika/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for catalogue browsing and curation.
type Handler struct {
	service *Service
}

// NewHandler constructs a catalog [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CategoryRoutes returns the router mounted at /categories.
//
// Browsing is public; create and delete require [sec.RoleAdmin].
func (handler *Handler) CategoryRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listCategories)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/", handler.createCategory)
		admin.Delete("/{slug}", handler.deleteCategory)
	})

	return router
}

// GenreRoutes returns the router mounted at /genres.
func (handler *Handler) GenreRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listGenres)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/", handler.createGenre)
		admin.Delete("/{slug}", handler.deleteGenre)
	})

	return router
}

// WorkRoutes returns the router mounted at /works.
//
// # Routing Strategy
//
//   - Discovery (Public): List and detail endpoints for all visitors.
//   - Curation (Restricted): Requires [sec.RoleAdmin] for mutations.
//   - PUT is rejected with 405 before any data access.
func (handler *Handler) WorkRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery Endpoints
	router.Get("/", handler.listWorks)
	router.Get("/{workID}", handler.getWork)

	// ## Curation (Admin Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/", handler.createWork)
		admin.Patch("/{workID}", handler.updateWork)
		admin.Delete("/{workID}", handler.deleteWork)
	})

	// ## Unsupported Shapes
	router.Put("/{workID}", handler.rejectReplace)

	return router
}

// # Classification Endpoints

/*
GET /api/v1/categories.

Request:
  - search: string (Substring match on name)
  - page, limit: int

Response:
  - 200: []Term: Paginated list
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	handler.listTerms(writer, request, handler.service.ListCategories)
}

/*
GET /api/v1/genres.

Request:
  - search: string (Substring match on name)
  - page, limit: int

Response:
  - 200: []Term: Paginated list
*/
func (handler *Handler) listGenres(writer http.ResponseWriter, request *http.Request) {
	handler.listTerms(writer, request, handler.service.ListGenres)
}

// listTerms is the shared list implementation for both term endpoints.
func (handler *Handler) listTerms(
	writer http.ResponseWriter,
	request *http.Request,
	list func(ctx context.Context, search string, limit, offset int) ([]*Term, int, error),
) {
	paginationParams := pagination.FromRequest(request)
	search := request.URL.Query().Get("search")

	terms, total, err := list(request.Context(), search, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, terms, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// createTermRequest defines the inbound JSON schema for term creation.
type createTermRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

/*
POST /api/v1/categories.

Request (Body):
  - name: string
  - slug: string (Optional; derived from name when empty)

Response:
  - 201: Term: Created category
  - 400: 400: Validation: Invalid name or slug
  - 409: 409: ErrConflict: Slug already taken
*/
func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input createTermRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	term, err := handler.service.CreateCategory(request.Context(), input.Name, input.Slug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, term)
}

/*
DELETE /api/v1/categories/{slug}.

Response:
  - 204: No Content: Success
  - 404: 404: ErrNotFound: Category not found
*/
func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteCategory(request.Context(), requestutil.Param(request, "slug")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/genres.

Request (Body):
  - name: string
  - slug: string (Optional; derived from name when empty)

Response:
  - 201: Term: Created genre
  - 409: 409: ErrConflict: Slug already taken
*/
func (handler *Handler) createGenre(writer http.ResponseWriter, request *http.Request) {
	var input createTermRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	term, err := handler.service.CreateGenre(request.Context(), input.Name, input.Slug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, term)
}

/*
DELETE /api/v1/genres/{slug}.

Response:
  - 204: No Content: Success
  - 404: 404: ErrNotFound: Genre not found
*/
func (handler *Handler) deleteGenre(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteGenre(request.Context(), requestutil.Param(request, "slug")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Work Endpoints

/*
GET /api/v1/works.

Description: Retrieves a paginated list of works with their categories,
genres, and persisted ratings.

Request:
  - category: string (Category slug)
  - genre: string (Genre slug)
  - name: string (Substring match)
  - year: int (Exact release year)
  - page, limit: int

Response:
  - 200: []Work: Paginated list
*/
func (handler *Handler) listWorks(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		CategorySlug: queryParams.Get("category"),
		GenreSlug:    queryParams.Get("genre"),
		Name:         queryParams.Get("name"),
	}

	if year, err := strconv.Atoi(queryParams.Get("year")); err == nil {
		filter.Year = &year
	}

	works, total, err := handler.service.ListWorks(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, works, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/works/{workID}.

Response:
  - 200: Work: Success
  - 404: 404: ErrNotFound: Work not found
*/
func (handler *Handler) getWork(writer http.ResponseWriter, request *http.Request) {
	work, err := handler.service.GetWork(request.Context(), requestutil.ID(request, "workID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, work)
}

// # Request Payloads

// createWorkRequest defines the inbound JSON schema for work creation.
type createWorkRequest struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"` // category slug
	Genres      []string `json:"genres"`   // genre slugs
}

// updateWorkRequest defines the inbound JSON schema for partial updates.
type updateWorkRequest struct {
	Name        *string  `json:"name"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Genres      []string `json:"genres"`
}

// # Mutation Endpoints

/*
POST /api/v1/works.

Request (Body):
  - createWorkRequest: JSON object

Response:
  - 201: Work: Created work (rating 0)
  - 400: 400: Validation: Invalid name/year
  - 403: 403: ErrForbidden: Insufficient permissions
  - 404: 404: ErrNotFound: Unknown category or genre slug
*/
func (handler *Handler) createWork(writer http.ResponseWriter, request *http.Request) {
	var input createWorkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	work, err := handler.service.CreateWork(request.Context(), input.Name, input.Year, input.Description, input.Category, input.Genres)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, work)
}

/*
PATCH /api/v1/works/{workID}.

Request (Body):
  - updateWorkRequest: Partial JSON

Response:
  - 200: Work: Updated work
  - 404: 404: ErrNotFound: Work not found
*/
func (handler *Handler) updateWork(writer http.ResponseWriter, request *http.Request) {
	var input updateWorkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch := WorkPatch{
		Name:         input.Name,
		Year:         input.Year,
		Description:  input.Description,
		CategorySlug: input.Category,
		GenreSlugs:   input.Genres,
	}

	work, err := handler.service.UpdateWork(request.Context(), requestutil.ID(request, "workID"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, work)
}

/*
DELETE /api/v1/works/{workID}.

Response:
  - 204: No Content: Success
  - 404: 404: ErrNotFound: Work not found
*/
func (handler *Handler) deleteWork(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteWork(request.Context(), requestutil.ID(request, "workID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PUT /api/v1/works/{workID}.

Description: Full replace is deliberately unsupported.

Response:
  - 405: 405: METHOD_NOT_ALLOWED
*/
func (handler *Handler) rejectReplace(writer http.ResponseWriter, request *http.Request) {
	respond.Error(writer, request, apperr.MethodNotAllowed("Full replace is not supported; use PATCH for partial updates"))
}
