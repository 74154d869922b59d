// Copyright (c) 2026 Kritika. All rights reserved.

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/constants"
	"github.com/kritika-app/kritika/internal/platform/sec"
	"github.com/kritika-app/kritika/internal/platform/validate"
	"github.com/kritika-app/kritika/pkg/pointer"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// confirmationCodeBytes is the entropy of an issued code (hex doubles it).
const confirmationCodeBytes = 16

// TokenIssuer is the narrow signing surface the service needs, satisfied by
// [sec.TokenService] and by fakes in tests.
type TokenIssuer interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// # Service Layer

// Service orchestrates signup, token issuance, and user administration.
type Service struct {
	users  UserRepository
	codes  CodeRepository
	mailer Mailer
	tokens TokenIssuer
	logger *slog.Logger
}

// NewService constructs an auth [Service].
func NewService(users UserRepository, codes CodeRepository, mailer Mailer, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		codes:  codes,
		mailer: mailer,
		tokens: tokens,
		logger: logger,
	}
}

// # Signup Handshake

/*
Signup registers an account (or recognises an existing one) and issues a
confirmation code.

Description: The (username, email) pair is matched exactly. A fresh pair
creates a new account with the default role. An existing exact pair simply
re-issues the code, so a user who lost the first mail can retry signup
without an error. A half-match — username taken under another email, or email
registered under another username — is rejected.

The raw code leaves the system only through the [Mailer]; storage holds a
bcrypt hash with a TTL.

Parameters:
  - ctx: context.Context
  - username: string (Reserved name "me" is rejected)
  - email: string

Returns:
  - *User: The new or recognised account
  - error: Validation failures or storage errors
*/
func (service *Service) Signup(ctx context.Context, username, email string) (*User, error) {
	v := &validate.Validator{}
	v.Required("username", username).MaxLen("username", username, 150).
		Username("username", username).
		Custom("username", username == constants.ReservedUsername, "This username is reserved").
		Required("email", email).MaxLen("email", email, 254).Email("email", email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	existing, err := service.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Email != email {
			return nil, validate.RequiredError("username", "This username is already taken")
		}
		// Exact pair: re-issue the code for the stalled signup.
		if err := service.issueCode(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil

	case !isNotFound(err):
		return nil, err
	}

	if _, err := service.users.FindByEmail(ctx, email); err == nil {
		return nil, validate.RequiredError("email", "This email is already registered")
	} else if !isNotFound(err) {
		return nil, err
	}

	now := time.Now()
	user := &User{
		ID:        uuidv7.New(),
		Username:  username,
		Email:     email,
		Role:      sec.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "user_signed_up",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	if err := service.issueCode(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
IssueToken exchanges username + confirmation code for an access token.

Description: The code is compared against its stored bcrypt hash and
invalidated on success, so each issued code authenticates at most once.

Returns:
  - *TokenResponse: RS256 JWT with the configured TTL
  - error: apperr.Unauthorized on unknown user, expired code, or mismatch
*/
func (service *Service) IssueToken(ctx context.Context, username, code string) (*TokenResponse, error) {
	v := &validate.Validator{}
	v.Required("username", username).Required("confirmation_code", code)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	codeHash, err := service.codes.GetCodeHash(ctx, user.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized("Confirmation code is invalid or expired")
		}
		return nil, err
	}

	if !sec.CheckSecretHash(code, codeHash) {
		return nil, apperr.Unauthorized("Confirmation code is invalid or expired")
	}

	if err := service.codes.DeleteCode(ctx, user.ID); err != nil {
		service.logger.WarnContext(ctx, "confirmation_code_delete_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role), constants.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(constants.AccessTokenTTL.Seconds()),
	}, nil
}

// issueCode generates, hashes, stores, and delivers a confirmation code.
func (service *Service) issueCode(ctx context.Context, user *User) error {
	code, err := sec.GenerateSecureToken(confirmationCodeBytes)
	if err != nil {
		return apperr.Internal(err)
	}

	codeHash, err := sec.HashSecret(code)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.codes.SaveCodeHash(ctx, user.ID, codeHash, constants.ConfirmationCodeTTL); err != nil {
		return err
	}

	return service.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code)
}

// # Self Service

// GetProfile returns the authenticated user's own account.
func (service *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	return service.users.FindByID(ctx, userID)
}

// ProfilePatch carries the optional fields of a self-service update.
type ProfilePatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
}

// UpdateProfile applies a partial update to the caller's own account.
// The role is deliberately absent from [ProfilePatch]: it never changes here.
func (service *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return service.applyPatch(ctx, user, patch, nil)
}

// # User Administration

// ListUsers returns a page of accounts matching the optional username search.
func (service *Service) ListUsers(ctx context.Context, search string, limit, offset int) ([]*User, int, error) {
	return service.users.List(ctx, search, limit, offset)
}

// GetUser returns the account with the given username.
func (service *Service) GetUser(ctx context.Context, username string) (*User, error) {
	return service.users.FindByUsername(ctx, username)
}

// CreateUser registers an account on a user's behalf (admin surface).
// No confirmation code is issued; the user runs signup to obtain one.
func (service *Service) CreateUser(ctx context.Context, username, email string, role sec.UserRole) (*User, error) {
	v := &validate.Validator{}
	v.Required("username", username).MaxLen("username", username, 150).
		Username("username", username).
		Custom("username", username == constants.ReservedUsername, "This username is reserved").
		Required("email", email).Email("email", email)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if role == "" {
		role = sec.RoleUser
	}
	if !role.IsValid() {
		return nil, validate.RequiredError("role", "Unknown role")
	}

	now := time.Now()
	user := &User{
		ID:        uuidv7.New(),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// AdminPatch extends [ProfilePatch] with the role field only admins may set.
type AdminPatch struct {
	ProfilePatch
	Role *sec.UserRole
}

// UpdateUser applies a partial update to any account (admin surface).
func (service *Service) UpdateUser(ctx context.Context, username string, patch AdminPatch) (*User, error) {
	user, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return service.applyPatch(ctx, user, patch.ProfilePatch, patch.Role)
}

// DeleteUser removes an account by username (admin surface).
func (service *Service) DeleteUser(ctx context.Context, username string) error {
	return service.users.DeleteByUsername(ctx, username)
}

// applyPatch validates and persists the combined field changes.
func (service *Service) applyPatch(ctx context.Context, user *User, patch ProfilePatch, role *sec.UserRole) (*User, error) {
	user.Email = pointer.Fallback(patch.Email, user.Email)
	user.FirstName = pointer.Fallback(patch.FirstName, user.FirstName)
	user.LastName = pointer.Fallback(patch.LastName, user.LastName)
	user.Bio = pointer.Fallback(patch.Bio, user.Bio)

	v := &validate.Validator{}
	v.Required("email", user.Email).Email("email", user.Email).
		MaxLen("first_name", user.FirstName, 150).
		MaxLen("last_name", user.LastName, 150)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if role != nil {
		if !role.IsValid() {
			return nil, validate.RequiredError("role", "Unknown role")
		}
		user.Role = *role
	}

	user.UpdatedAt = time.Now()

	if err := service.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// isNotFound reports whether err is a classified 404.
func isNotFound(err error) bool {
	ae := apperr.As(err)
	return ae != nil && ae.HTTPStatus == http.StatusNotFound
}
