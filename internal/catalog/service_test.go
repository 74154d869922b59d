// Copyright (c) 2026 Kritika. All rights reserved.

package catalog

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/pkg/pointer"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// # In-Memory Fakes

type fakeTermRepo struct {
	terms map[string]*Term // slug -> term
}

func newFakeTermRepo(names ...string) *fakeTermRepo {
	repo := &fakeTermRepo{terms: make(map[string]*Term)}
	for _, name := range names {
		term := &Term{ID: uuidv7.New(), Name: name, Slug: name}
		repo.terms[term.Slug] = term
	}
	return repo
}

func (repo *fakeTermRepo) List(_ context.Context, search string, limit, offset int) ([]*Term, int, error) {
	var matched []*Term
	for _, term := range repo.terms {
		matched = append(matched, term)
	}
	return matched, len(matched), nil
}

func (repo *fakeTermRepo) Create(_ context.Context, term *Term) error {
	if _, taken := repo.terms[term.Slug]; taken {
		return apperr.Conflict("Slug is already taken")
	}
	repo.terms[term.Slug] = term
	return nil
}

func (repo *fakeTermRepo) FindBySlug(_ context.Context, slug string) (*Term, error) {
	term, ok := repo.terms[slug]
	if !ok {
		return nil, apperr.NotFound("Term")
	}
	return term, nil
}

func (repo *fakeTermRepo) DeleteBySlug(_ context.Context, slug string) error {
	if _, ok := repo.terms[slug]; !ok {
		return apperr.NotFound("Term")
	}
	delete(repo.terms, slug)
	return nil
}

type fakeWorkRepo struct {
	works  map[string]*Work
	genres map[string]string // slug -> id
}

func newFakeWorkRepo(genreSlugs ...string) *fakeWorkRepo {
	repo := &fakeWorkRepo{
		works:  make(map[string]*Work),
		genres: make(map[string]string),
	}
	for _, slug := range genreSlugs {
		repo.genres[slug] = uuidv7.New()
	}
	return repo
}

func (repo *fakeWorkRepo) List(_ context.Context, filter Filter, limit, offset int) ([]*Work, int, error) {
	var matched []*Work
	for _, work := range repo.works {
		matched = append(matched, work)
	}
	return matched, len(matched), nil
}

func (repo *fakeWorkRepo) FindByID(_ context.Context, id string) (*Work, error) {
	work, ok := repo.works[id]
	if !ok {
		return nil, apperr.NotFound("Work")
	}
	copied := *work
	return &copied, nil
}

func (repo *fakeWorkRepo) Create(_ context.Context, work *Work) error {
	copied := *work
	repo.works[work.ID] = &copied
	return nil
}

func (repo *fakeWorkRepo) Update(_ context.Context, work *Work) error {
	if _, ok := repo.works[work.ID]; !ok {
		return apperr.NotFound("Work")
	}
	copied := *work
	repo.works[work.ID] = &copied
	return nil
}

func (repo *fakeWorkRepo) Delete(_ context.Context, id string) error {
	if _, ok := repo.works[id]; !ok {
		return apperr.NotFound("Work")
	}
	delete(repo.works, id)
	return nil
}

func (repo *fakeWorkRepo) ResolveGenres(_ context.Context, slugs []string) ([]string, error) {
	var ids []string
	for _, slug := range slugs {
		id, ok := repo.genres[slug]
		if !ok {
			return nil, apperr.NotFound("Genre " + slug)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestService() (*Service, *fakeTermRepo, *fakeWorkRepo) {
	categories := newFakeTermRepo("films", "books")
	genres := newFakeTermRepo()
	works := newFakeWorkRepo("drama", "comedy")
	return NewService(categories, genres, works), categories, works
}

// # Term Tests

func TestService_CreateCategory_DerivesSlugFromName(t *testing.T) {
	service, categories, _ := newTestService()

	term, err := service.CreateCategory(context.Background(), "Science Fiction", "")

	require.NoError(t, err)
	assert.Equal(t, "science-fiction", term.Slug)
	assert.Contains(t, categories.terms, "science-fiction")
}

func TestService_CreateCategory_RejectsDuplicateSlug(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.CreateCategory(context.Background(), "Films", "films")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

func TestService_CreateGenre_RejectsEmptyName(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.CreateGenre(context.Background(), "  ", "")

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

// # Work Tests

func TestService_CreateWork_StartsUnrated(t *testing.T) {
	service, _, works := newTestService()

	work, err := service.CreateWork(context.Background(), "Solaris", 1972, "Tarkovsky adaptation", "films", []string{"drama"})

	require.NoError(t, err)
	assert.InDelta(t, 0, work.Rating, 0.0001)
	assert.Len(t, works.works, 1)
	assert.Len(t, works.works[work.ID].GenreIDs, 1)
}

func TestService_CreateWork_RejectsFutureYear(t *testing.T) {
	service, _, works := newTestService()

	_, err := service.CreateWork(context.Background(), "From The Future", time.Now().Year()+1, "", "films", nil)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.Empty(t, works.works)
}

func TestService_CreateWork_UnknownCategory(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.CreateWork(context.Background(), "Orphan", 2001, "", "podcasts", nil)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

func TestService_CreateWork_UnknownGenre(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.CreateWork(context.Background(), "Mislabeled", 2001, "", "films", []string{"drama", "unheard-of"})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}

func TestService_UpdateWork_PartialKeepsOtherFields(t *testing.T) {
	service, _, _ := newTestService()

	created, err := service.CreateWork(context.Background(), "Stalker", 1979, "Zone expedition", "films", []string{"drama"})
	require.NoError(t, err)

	updated, err := service.UpdateWork(context.Background(), created.ID, WorkPatch{
		Description: pointer.To("Expedition into the Zone"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Stalker", updated.Name)
	assert.Equal(t, 1979, updated.Year)
	assert.Equal(t, "Expedition into the Zone", updated.Description)
}

func TestService_UpdateWork_RejectsFutureYear(t *testing.T) {
	service, _, _ := newTestService()

	created, err := service.CreateWork(context.Background(), "Stalker", 1979, "", "films", nil)
	require.NoError(t, err)

	_, err = service.UpdateWork(context.Background(), created.ID, WorkPatch{
		Year: pointer.To(time.Now().Year() + 5),
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

func TestService_DeleteWork_Missing(t *testing.T) {
	service, _, _ := newTestService()

	err := service.DeleteWork(context.Background(), uuidv7.New())

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)
}
