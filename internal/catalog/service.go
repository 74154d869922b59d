// Copyright (c) 2026 Kritika. All rights reserved.

package catalog

import (
	"context"
	"time"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/validate"
	"github.com/kritika-app/kritika/pkg/pointer"
	"github.com/kritika-app/kritika/pkg/slug"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates the business logic for the catalogue.
type Service struct {
	categoryRepo TermRepository
	genreRepo    TermRepository
	workRepo     WorkRepository
}

// NewService constructs a catalog [Service] with its required repositories.
func NewService(categoryRepo, genreRepo TermRepository, workRepo WorkRepository) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		workRepo:     workRepo,
	}
}

// # Classification Terms

// ListCategories retrieves categories matching the optional search string.
func (service *Service) ListCategories(ctx context.Context, search string, limit, offset int) ([]*Term, int, error) {
	return service.categoryRepo.List(ctx, search, limit, offset)
}

// CreateCategory registers a new category. The slug is derived from the name
// when the caller leaves it empty.
func (service *Service) CreateCategory(ctx context.Context, name, slugValue string) (*Term, error) {
	return service.createTerm(ctx, service.categoryRepo, name, slugValue)
}

// DeleteCategory removes a category by slug.
func (service *Service) DeleteCategory(ctx context.Context, slugValue string) error {
	return service.categoryRepo.DeleteBySlug(ctx, slugValue)
}

// ListGenres retrieves genres matching the optional search string.
func (service *Service) ListGenres(ctx context.Context, search string, limit, offset int) ([]*Term, int, error) {
	return service.genreRepo.List(ctx, search, limit, offset)
}

// CreateGenre registers a new genre.
func (service *Service) CreateGenre(ctx context.Context, name, slugValue string) (*Term, error) {
	return service.createTerm(ctx, service.genreRepo, name, slugValue)
}

// DeleteGenre removes a genre by slug.
func (service *Service) DeleteGenre(ctx context.Context, slugValue string) error {
	return service.genreRepo.DeleteBySlug(ctx, slugValue)
}

// createTerm validates and persists a classification term.
func (service *Service) createTerm(ctx context.Context, repo TermRepository, name, slugValue string) (*Term, error) {
	if slugValue == "" {
		slugValue = slug.From(name)
	}

	v := &validate.Validator{}
	v.Required("name", name).MaxLen("name", name, 256).
		Required("slug", slugValue).MaxLen("slug", slugValue, 50).
		Slug("slug", slugValue)
	if err := v.Err(); err != nil {
		return nil, err
	}

	term := &Term{
		ID:   uuidv7.New(),
		Name: name,
		Slug: slugValue,
	}

	if err := repo.Create(ctx, term); err != nil {
		return nil, err
	}

	return term, nil
}

// # Works

/*
ListWorks retrieves a paginated and filtered collection of works.

Description: Filter criteria pass straight to the repository for
database-level filtering. Each work arrives hydrated with its category,
genres, and persisted rating.
*/
func (service *Service) ListWorks(ctx context.Context, filter Filter, limit, offset int) ([]*Work, int, error) {
	return service.workRepo.List(ctx, filter, limit, offset)
}

// GetWork fetches a single hydrated work by UUID.
func (service *Service) GetWork(ctx context.Context, id string) (*Work, error) {
	return service.workRepo.FindByID(ctx, id)
}

/*
CreateWork admits a new work into the catalogue.

Description: The category must exist (addressed by slug) and every genre slug
must resolve. The release year may not lie in the future. New works start
with rating 0 until their first review lands.

Parameters:
  - ctx: context.Context
  - name: string
  - year: int (Release year, <= current year)
  - description: string
  - categorySlug: string
  - genreSlugs: []string

Returns:
  - *Work: The hydrated persisted work
  - error: Validation, NotFound (category/genre), or storage failures
*/
func (service *Service) CreateWork(ctx context.Context, name string, year int, description, categorySlug string, genreSlugs []string) (*Work, error) {
	v := &validate.Validator{}
	v.Required("name", name).MaxLen("name", name, 256).
		Required("category", categorySlug).
		Custom("year", year > time.Now().Year(), "Release year may not be in the future").
		Custom("year", year <= 0, "Release year is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	category, err := service.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		return nil, apperr.NotFound("Category")
	}

	genreIDs, err := service.workRepo.ResolveGenres(ctx, genreSlugs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	work := &Work{
		ID:          uuidv7.New(),
		Name:        name,
		Year:        year,
		Description: description,
		CategoryID:  category.ID,
		GenreIDs:    genreIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := service.workRepo.Create(ctx, work); err != nil {
		return nil, err
	}

	return service.workRepo.FindByID(ctx, work.ID)
}

// WorkPatch carries the optional fields of a partial work update.
// Nil fields keep their stored values.
type WorkPatch struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   []string
}

/*
UpdateWork applies a partial update to an existing work.

Description: Only the provided fields change. A non-nil GenreSlugs replaces
the full genre set. The rating is never touched here.
*/
func (service *Service) UpdateWork(ctx context.Context, id string, patch WorkPatch) (*Work, error) {
	work, err := service.workRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	work.Name = pointer.Fallback(patch.Name, work.Name)
	work.Year = pointer.Fallback(patch.Year, work.Year)
	work.Description = pointer.Fallback(patch.Description, work.Description)

	v := &validate.Validator{}
	v.Required("name", work.Name).MaxLen("name", work.Name, 256).
		Custom("year", work.Year > time.Now().Year(), "Release year may not be in the future").
		Custom("year", work.Year <= 0, "Release year is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	if patch.CategorySlug != nil {
		category, err := service.categoryRepo.FindBySlug(ctx, *patch.CategorySlug)
		if err != nil {
			return nil, apperr.NotFound("Category")
		}
		work.CategoryID = category.ID
	}

	if patch.GenreSlugs != nil {
		genreIDs, err := service.workRepo.ResolveGenres(ctx, patch.GenreSlugs)
		if err != nil {
			return nil, err
		}
		work.GenreIDs = genreIDs
	} else {
		work.GenreIDs = nil
	}

	work.UpdatedAt = time.Now()

	if err := service.workRepo.Update(ctx, work); err != nil {
		return nil, err
	}

	return service.workRepo.FindByID(ctx, id)
}

// DeleteWork removes a work; its reviews and comments cascade in storage.
func (service *Service) DeleteWork(ctx context.Context, id string) error {
	return service.workRepo.Delete(ctx, id)
}
