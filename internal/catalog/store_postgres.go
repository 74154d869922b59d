// Copyright (c) 2026 Kritika. All rights reserved.

/*
Package catalog provides the PostgreSQL implementation for the catalogue's data access.

It leans on a few Postgres features to keep discovery to one round-trip:
  - JSON Aggregation: Genres arrive as a JSON array per work row.
  - Window Functions: COUNT(*) OVER() returns totals without a second query.
  - ACID Transactions: Work rows and their genre junctions change atomically.
*/
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/dberr"
)

// # Term Repository

// postgresTermRepository implements [TermRepository] for one of the two
// identically shaped classification tables.
type postgresTermRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewCategoryRepository constructs the catalog.category backed term store.
func NewCategoryRepository(pool *pgxpool.Pool) TermRepository {
	return &postgresTermRepository{pool: pool, table: "catalog.category"}
}

// NewGenreRepository constructs the catalog.genre backed term store.
func NewGenreRepository(pool *pgxpool.Pool) TermRepository {
	return &postgresTermRepository{pool: pool, table: "catalog.genre"}
}

func (repository *postgresTermRepository) List(ctx context.Context, search string, limit, offset int) ([]*Term, int, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%')
		ORDER BY name ASC
		LIMIT $2 OFFSET $3`, repository.table)

	rows, err := repository.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "term_list")
	}
	defer rows.Close()

	var terms []*Term
	total := 0

	for rows.Next() {
		term := &Term{}
		if err := rows.Scan(&term.ID, &term.Name, &term.Slug, &total); err != nil {
			return nil, 0, dberr.Wrap(err, "term_list_scan")
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "term_list_rows")
	}

	return terms, total, nil
}

func (repository *postgresTermRepository) Create(ctx context.Context, term *Term) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, name, slug) VALUES ($1, $2, $3)`, repository.table)

	if _, err := repository.pool.Exec(ctx, query, term.ID, term.Name, term.Slug); err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Slug is already taken")
		}
		return dberr.Wrap(err, "term_create")
	}

	return nil
}

func (repository *postgresTermRepository) FindBySlug(ctx context.Context, slug string) (*Term, error) {
	query := fmt.Sprintf(`SELECT id, name, slug FROM %s WHERE slug = $1`, repository.table)

	term := &Term{}
	if err := repository.pool.QueryRow(ctx, query, slug).Scan(&term.ID, &term.Name, &term.Slug); err != nil {
		return nil, dberr.Wrap(err, "term_find")
	}

	return term, nil
}

func (repository *postgresTermRepository) DeleteBySlug(ctx context.Context, slug string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE slug = $1`, repository.table)

	tag, err := repository.pool.Exec(ctx, query, slug)
	if err != nil {
		return dberr.Wrap(err, "term_delete")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// # Work Repository

// postgresWorkRepository implements [WorkRepository] using pgx.
type postgresWorkRepository struct {
	pool *pgxpool.Pool
}

// NewWorkRepository constructs a PostgreSQL backed work store.
func NewWorkRepository(pool *pgxpool.Pool) WorkRepository {
	return &postgresWorkRepository{pool: pool}
}

// workSelect hydrates the work with its category and a JSON array of genres
// in a single round-trip.
const workSelect = `
	SELECT
		w.id, w.name, w.year, w.description, w.rating, w.createdat, w.updatedat,
		c.id, c.name, c.slug,
		COALESCE((
			SELECT json_agg(json_build_object('id', g.id, 'name', g.name, 'slug', g.slug) ORDER BY g.name)
			FROM catalog.genre g
			JOIN catalog.workgenre wg ON wg.genreid = g.id
			WHERE wg.workid = w.id
		), '[]') AS genres`

/*
List returns a filtered, paginated slice of works and the total count.

Description: Filters compose into a dynamic WHERE clause. Category and genre
filters resolve through their slug; the name filter is a case-insensitive
substring match.
*/
func (repository *postgresWorkRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Work, int, error) {
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(workSelect)
	queryBuilder.WriteString(`,
		COUNT(*) OVER() AS total_count
	FROM catalog.work w
	JOIN catalog.category c ON c.id = w.categoryid
	WHERE TRUE`)

	if filter.CategorySlug != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.slug = $%d", argID))
		args = append(args, filter.CategorySlug)
		argID++
	}

	if filter.GenreSlug != "" {
		queryBuilder.WriteString(fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM catalog.workgenre wg
			JOIN catalog.genre g ON g.id = wg.genreid
			WHERE wg.workid = w.id AND g.slug = $%d
		)`, argID))
		args = append(args, filter.GenreSlug)
		argID++
	}

	if filter.Name != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND w.name ILIKE '%%' || $%d || '%%'", argID))
		args = append(args, filter.Name)
		argID++
	}

	if filter.Year != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND w.year = $%d", argID))
		args = append(args, *filter.Year)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY w.name ASC, w.id ASC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "work_list")
	}
	defer rows.Close()

	var works []*Work
	total := 0

	for rows.Next() {
		work, err := scanWork(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "work_list_scan")
		}
		works = append(works, work)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "work_list_rows")
	}

	return works, total, nil
}

func (repository *postgresWorkRepository) FindByID(ctx context.Context, id string) (*Work, error) {
	query := workSelect + `
	FROM catalog.work w
	JOIN catalog.category c ON c.id = w.categoryid
	WHERE w.id = $1`

	rows, err := repository.pool.Query(ctx, query, id)
	if err != nil {
		return nil, dberr.Wrap(err, "work_find")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dberr.Wrap(err, "work_find_rows")
		}
		return nil, apperr.NotFound("Work")
	}

	work, err := scanWork(rows, nil)
	if err != nil {
		return nil, dberr.Wrap(err, "work_find_scan")
	}

	return work, nil
}

// Create persists the work row and its genre junctions in one transaction.
func (repository *postgresWorkRepository) Create(ctx context.Context, work *Work) error {
	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "work_create_begin")
	}
	defer tx.Rollback(ctx)

	const insertWork = `
		INSERT INTO catalog.work (id, name, year, description, categoryid, rating, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`

	if _, err := tx.Exec(ctx, insertWork,
		work.ID, work.Name, work.Year, work.Description, work.CategoryID, work.CreatedAt, work.UpdatedAt,
	); err != nil {
		return dberr.Wrap(err, "work_create")
	}

	if err := insertGenreJunctions(ctx, tx, work.ID, work.GenreIDs); err != nil {
		return dberr.Wrap(err, "work_create_genres")
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "work_create_commit")
	}

	return nil
}

// Update persists the mutable fields; a non-nil GenreIDs replaces the
// junction set. The rating column is deliberately absent from the statement.
func (repository *postgresWorkRepository) Update(ctx context.Context, work *Work) error {
	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "work_update_begin")
	}
	defer tx.Rollback(ctx)

	const updateWork = `
		UPDATE catalog.work
		SET name = $2, year = $3, description = $4, categoryid = $5, updatedat = $6
		WHERE id = $1`

	tag, err := tx.Exec(ctx, updateWork,
		work.ID, work.Name, work.Year, work.Description, work.CategoryID, work.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "work_update")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Work")
	}

	if work.GenreIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM catalog.workgenre WHERE workid = $1`, work.ID); err != nil {
			return dberr.Wrap(err, "work_update_genres_clear")
		}
		if err := insertGenreJunctions(ctx, tx, work.ID, work.GenreIDs); err != nil {
			return dberr.Wrap(err, "work_update_genres")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "work_update_commit")
	}

	return nil
}

func (repository *postgresWorkRepository) Delete(ctx context.Context, id string) error {
	tag, err := repository.pool.Exec(ctx, `DELETE FROM catalog.work WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "work_delete")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Work")
	}

	return nil
}

// ResolveGenres maps genre slugs to IDs, failing on the first unknown slug.
func (repository *postgresWorkRepository) ResolveGenres(ctx context.Context, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	const query = `SELECT slug, id FROM catalog.genre WHERE slug = ANY($1)`

	rows, err := repository.pool.Query(ctx, query, slugs)
	if err != nil {
		return nil, dberr.Wrap(err, "genre_resolve")
	}
	defer rows.Close()

	found := make(map[string]string, len(slugs))
	for rows.Next() {
		var slug, id string
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, dberr.Wrap(err, "genre_resolve_scan")
		}
		found[slug] = id
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "genre_resolve_rows")
	}

	ids := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		id, ok := found[slug]
		if !ok {
			return nil, apperr.NotFound("Genre " + slug)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// # Helpers

// insertGenreJunctions writes the workgenre rows for the given genre IDs.
func insertGenreJunctions(ctx context.Context, tx pgx.Tx, workID string, genreIDs []string) error {
	for _, genreID := range genreIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO catalog.workgenre (workid, genreid) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			workID, genreID,
		); err != nil {
			return err
		}
	}
	return nil
}

// scanWork reads one hydrated work row. total may be nil when the query has
// no window-function column.
func scanWork(rows pgx.Rows, total *int) (*Work, error) {
	work := &Work{Category: &Category{}}
	var genresJSON []byte

	dest := []any{
		&work.ID, &work.Name, &work.Year, &work.Description, &work.Rating,
		&work.CreatedAt, &work.UpdatedAt,
		&work.Category.ID, &work.Category.Name, &work.Category.Slug,
		&genresJSON,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	work.CategoryID = work.Category.ID
	work.Genres = []Genre{}
	if err := json.Unmarshal(genresJSON, &work.Genres); err != nil {
		return nil, err
	}

	return work, nil
}
