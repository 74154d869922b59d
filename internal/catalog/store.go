// Copyright (c) 2026 Kritika. All rights reserved.

package catalog

import "context"

// # Classification Data Access

// TermRepository is the shared contract for the two classification tables.
// Categories and genres have identical shapes and identical operations, so
// they share one interface with two implementations.
type TermRepository interface {

	/*
		List returns classification terms matching the optional search string.

		Parameters:
		  - ctx: context.Context
		  - search: string (Case-insensitive substring match on name; "" lists all)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Term: Matching terms
		  - int: Total count
		  - error: Storage failures
	*/
	List(ctx context.Context, search string, limit, offset int) ([]*Term, int, error)

	/*
		Create persists a new term.

		Returns:
		  - error: apperr.Conflict if the slug is taken
	*/
	Create(ctx context.Context, term *Term) error

	/*
		FindBySlug returns the term with the given slug.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	FindBySlug(ctx context.Context, slug string) (*Term, error)

	/*
		DeleteBySlug removes the term.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	DeleteBySlug(ctx context.Context, slug string) error
}

// # Work Data Access

// WorkRepository defines the data access contract for works.
type WorkRepository interface {

	/*
		List returns a filtered, paginated slice of works and the total count.

		Works arrive hydrated: category and genres joined in, persisted rating
		included.
	*/
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Work, int, error)

	/*
		FindByID returns the hydrated work.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	FindByID(ctx context.Context, id string) (*Work, error)

	/*
		Create persists a new work and its genre junctions atomically.
	*/
	Create(ctx context.Context, work *Work) error

	/*
		Update persists the work's mutable fields. A non-nil GenreIDs slice
		replaces the genre set; nil leaves it untouched.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Update(ctx context.Context, work *Work) error

	/*
		Delete removes the work. Reviews and comments cascade in storage.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Delete(ctx context.Context, id string) error

	/*
		ResolveGenres maps genre slugs to their IDs, erroring on unknown slugs.
	*/
	ResolveGenres(ctx context.Context, slugs []string) ([]string, error)
}
