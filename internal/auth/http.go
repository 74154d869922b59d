// Copyright (c) 2026 Kritika. All rights reserved.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kritika-app/kritika/internal/platform/middleware"
	requestutil "github.com/kritika-app/kritika/internal/platform/request"
	"github.com/kritika-app/kritika/internal/platform/respond"
	"github.com/kritika-app/kritika/internal/platform/sec"
	"github.com/kritika-app/kritika/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for signup, tokens, and user management.
type Handler struct {
	service *Service
}

// NewHandler constructs an auth [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AuthRoutes returns the public router mounted at /auth.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signup)
	router.Post("/token", handler.issueToken)

	return router
}

// UserRoutes returns the router mounted at /users.
//
// # Routing Strategy
//
//   - /me (Authenticated): Self-service profile access for any signed-in user.
//   - /{username} and the collection (Restricted): Requires [sec.RoleAdmin].
//
// The static /me segment is registered alongside /{username}; the router
// prefers the literal match, so the reserved-username rule in signup keeps
// the two from ever colliding.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Self Service
	router.Group(func(self chi.Router) {
		self.Use(middleware.RequireAuth)

		self.Get("/me", handler.getMe)
		self.Patch("/me", handler.updateMe)
	})

	// ## Administration
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Get("/", handler.listUsers)
		admin.Post("/", handler.createUser)
		admin.Get("/{username}", handler.getUser)
		admin.Patch("/{username}", handler.updateUser)
		admin.Delete("/{username}", handler.deleteUser)
	})

	return router
}

// # Request Payloads

// signupRequest defines the inbound JSON schema for signup.
type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// tokenRequest defines the inbound JSON schema for token issuance.
type tokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

// createUserRequest defines the inbound JSON schema for admin user creation.
type createUserRequest struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Role     sec.UserRole `json:"role"`
}

// updateUserRequest defines the inbound JSON schema for partial updates.
// The role field is honoured only on the admin endpoint.
type updateUserRequest struct {
	Email     *string       `json:"email"`
	FirstName *string       `json:"first_name"`
	LastName  *string       `json:"last_name"`
	Bio       *string       `json:"bio"`
	Role      *sec.UserRole `json:"role"`
}

// # Signup Endpoints

/*
POST /api/v1/auth/signup.

Description: Registers a username + email pair and issues a confirmation
code, delivered out-of-band. Repeating signup with the exact same pair
re-issues the code.

Response:
  - 200: {username, email}: Code issued
  - 400: 400: Validation: Reserved username, bad email, or half-duplicate pair
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Signup(request.Context(), input.Username, input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"username": user.Username,
		"email":    user.Email,
	})
}

/*
POST /api/v1/auth/token.

Description: Exchanges username + confirmation code for an RS256 access
token. The code is single-use.

Response:
  - 200: TokenResponse: Bearer token
  - 401: 401: ErrUnauthorized: Invalid or expired code
  - 404: 404: ErrNotFound: Unknown username
*/
func (handler *Handler) issueToken(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.service.IssueToken(request.Context(), input.Username, input.ConfirmationCode)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, token)
}

// # Self-Service Endpoints

/*
GET /api/v1/users/me.

Response:
  - 200: User: The caller's own account
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PATCH /api/v1/users/me.

Description: Partial self-service update. A role field in the payload is
ignored: users cannot change their own authorization level.

Response:
  - 200: User: Updated account
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateProfile(request.Context(), userID, ProfilePatch{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Administration Endpoints

/*
GET /api/v1/users.

Request:
  - search: string (Substring match on username)
  - page, limit: int

Response:
  - 200: []User: Paginated list
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	search := request.URL.Query().Get("search")

	users, total, err := handler.service.ListUsers(request.Context(), search, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
POST /api/v1/users.

Response:
  - 201: User: Created account
  - 409: 409: ErrConflict: Username or email taken
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.CreateUser(request.Context(), input.Username, input.Email, input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
GET /api/v1/users/{username}.

Response:
  - 200: User: Success
  - 404: 404: ErrNotFound: Unknown username
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.GetUser(request.Context(), requestutil.Param(request, "username"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PATCH /api/v1/users/{username}.

Response:
  - 200: User: Updated account
  - 404: 404: ErrNotFound: Unknown username
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch := AdminPatch{
		ProfilePatch: ProfilePatch{
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Bio:       input.Bio,
		},
		Role: input.Role,
	}

	user, err := handler.service.UpdateUser(request.Context(), requestutil.Param(request, "username"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/users/{username}.

Response:
  - 204: No Content: Success
  - 404: 404: ErrNotFound: Unknown username
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteUser(request.Context(), requestutil.Param(request, "username")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
