// Copyright (c) 2026 Kritika. All rights reserved.

package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/sec"
	"github.com/kritika-app/kritika/pkg/pointer"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	byID map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*User)}
}

func (repo *fakeUserRepo) Create(_ context.Context, user *User) error {
	for _, existing := range repo.byID {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("Username or email is already registered")
		}
	}
	copied := *user
	repo.byID[user.ID] = &copied
	return nil
}

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	user, ok := repo.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, user := range repo.byID {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range repo.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) List(_ context.Context, search string, limit, offset int) ([]*User, int, error) {
	var users []*User
	for _, user := range repo.byID {
		copied := *user
		users = append(users, &copied)
	}
	return users, len(users), nil
}

func (repo *fakeUserRepo) Update(_ context.Context, user *User) error {
	if _, ok := repo.byID[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	copied := *user
	repo.byID[user.ID] = &copied
	return nil
}

func (repo *fakeUserRepo) DeleteByUsername(_ context.Context, username string) error {
	for id, user := range repo.byID {
		if user.Username == username {
			delete(repo.byID, id)
			return nil
		}
	}
	return apperr.NotFound("User")
}

type fakeCodeRepo struct {
	hashes map[string]string
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{hashes: make(map[string]string)}
}

func (repo *fakeCodeRepo) SaveCodeHash(_ context.Context, userID, codeHash string, _ time.Duration) error {
	repo.hashes[userID] = codeHash
	return nil
}

func (repo *fakeCodeRepo) GetCodeHash(_ context.Context, userID string) (string, error) {
	codeHash, ok := repo.hashes[userID]
	if !ok {
		return "", apperr.NotFound("Confirmation code")
	}
	return codeHash, nil
}

func (repo *fakeCodeRepo) DeleteCode(_ context.Context, userID string) error {
	delete(repo.hashes, userID)
	return nil
}

type fakeMailer struct {
	sent     int
	lastCode string
}

func (mailer *fakeMailer) SendConfirmationCode(_ context.Context, email, username, code string) error {
	mailer.sent++
	mailer.lastCode = code
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(userID, username, role string, _ time.Duration) (string, error) {
	return "signed-token-for-" + username, nil
}

func newTestService() (*Service, *fakeUserRepo, *fakeCodeRepo, *fakeMailer) {
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	mailer := &fakeMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(users, codes, mailer, fakeTokens{}, logger), users, codes, mailer
}

// # Signup Tests

func TestService_Signup_CreatesUserAndIssuesCode(t *testing.T) {
	service, users, codes, mailer := newTestService()

	user, err := service.Signup(context.Background(), "reader_one", "reader@example.com")

	require.NoError(t, err)
	assert.Equal(t, sec.RoleUser, user.Role)
	assert.Len(t, users.byID, 1)
	assert.Equal(t, 1, mailer.sent)

	// Storage holds a hash that verifies against the delivered raw code.
	storedHash := codes.hashes[user.ID]
	require.NotEmpty(t, storedHash)
	assert.NotEqual(t, mailer.lastCode, storedHash)
	assert.True(t, sec.CheckSecretHash(mailer.lastCode, storedHash))
}

func TestService_Signup_ReservedUsername(t *testing.T) {
	service, users, _, _ := newTestService()

	_, err := service.Signup(context.Background(), "me", "me@example.com")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.Empty(t, users.byID)
}

func TestService_Signup_ExactPairReissuesCode(t *testing.T) {
	service, users, _, mailer := newTestService()

	first, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	second, err := service.Signup(context.Background(), "reader_one", "reader@example.com")

	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, users.byID, 1, "no second account for the same pair")
	assert.Equal(t, 2, mailer.sent, "code re-issued for the stalled signup")
}

func TestService_Signup_RejectsHalfDuplicates(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	_, err = service.Signup(context.Background(), "reader_one", "other@example.com")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)

	_, err = service.Signup(context.Background(), "reader_two", "reader@example.com")
	appError = apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

func TestService_Signup_InvalidUsernameCharset(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.Signup(context.Background(), "no spaces allowed", "x@example.com")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

// # Token Tests

func TestService_IssueToken_HappyPath(t *testing.T) {
	service, _, _, mailer := newTestService()

	_, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	token, err := service.IssueToken(context.Background(), "reader_one", mailer.lastCode)

	require.NoError(t, err)
	assert.Equal(t, "signed-token-for-reader_one", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Positive(t, token.ExpiresIn)
}

func TestService_IssueToken_CodeIsSingleUse(t *testing.T) {
	service, _, _, mailer := newTestService()

	_, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	_, err = service.IssueToken(context.Background(), "reader_one", mailer.lastCode)
	require.NoError(t, err)

	_, err = service.IssueToken(context.Background(), "reader_one", mailer.lastCode)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
}

func TestService_IssueToken_WrongCode(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	_, err = service.IssueToken(context.Background(), "reader_one", "definitely-wrong")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)
}

func TestService_IssueToken_UnknownUser(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.IssueToken(context.Background(), "ghost", "whatever")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

// # Profile Tests

func TestService_UpdateProfile_CannotEscalateRole(t *testing.T) {
	service, users, _, _ := newTestService()

	user, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	updated, err := service.UpdateProfile(context.Background(), user.ID, ProfilePatch{
		Bio: pointer.To("I rate things."),
	})

	require.NoError(t, err)
	assert.Equal(t, "I rate things.", updated.Bio)
	assert.Equal(t, sec.RoleUser, updated.Role)
	assert.Equal(t, sec.RoleUser, users.byID[user.ID].Role)
}

func TestService_UpdateUser_AdminChangesRole(t *testing.T) {
	service, users, _, _ := newTestService()

	user, err := service.Signup(context.Background(), "reader_one", "reader@example.com")
	require.NoError(t, err)

	moderator := sec.RoleModerator
	updated, err := service.UpdateUser(context.Background(), "reader_one", AdminPatch{Role: &moderator})

	require.NoError(t, err)
	assert.Equal(t, sec.RoleModerator, updated.Role)
	assert.Equal(t, sec.RoleModerator, users.byID[user.ID].Role)
}

func TestService_CreateUser_UnknownRole(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.CreateUser(context.Background(), "new_mod", "mod@example.com", sec.UserRole("overlord"))

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}
