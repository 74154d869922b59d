// Copyright (c) 2026 Kritika. All rights reserved.

/*
Package catalog defines the curated content catalogue of Kritika.

It manages the works users review (books, films, albums and anything else the
curators admit), organised by a single category and any number of genres.

Core Responsibility:

  - Works: Named titles with a release year, description, and derived rating.
  - Classification: Categories (exactly one per work) and genres (many per
    work), both addressed by URL slug.
  - Curation: All mutations are admin-only; browsing is public.

The work's rating field is read-only in this package. It is owned and written
exclusively by the review aggregation path.
*/
package catalog

import "time"

// # Classification Entities

// Term is the shared shape of both classification tables.
type Term struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Category is the single broad classification of a work (e.g. "films").
type Category = Term

// Genre is a finer-grained label; a work carries any number of them.
type Genre = Term

// # Core Entity

// Work is a reviewable title in the catalogue.
type Work struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"-"`

	// Category and Genres are hydrated for responses.
	Category *Category `json:"category,omitempty"`
	Genres   []Genre   `json:"genres"`

	// Rating is the derived mean review score (2 decimals, 0 when
	// unreviewed). Never written by this package.
	Rating float64 `json:"rating"`

	// GenreIDs is input-only, used on create/update.
	GenreIDs []string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter holds the optional criteria for work discovery.
type Filter struct {
	// CategorySlug narrows to works in the category.
	CategorySlug string
	// GenreSlug narrows to works carrying the genre.
	GenreSlug string
	// Name is a case-insensitive substring match on the work name.
	Name string
	// Year narrows to an exact release year.
	Year *int
}
