// Copyright (c) 2026 Kritika. All rights reserved.

/*
Package importer loads legacy CSV dumps into the database.

The seed files use small integer primary keys and reference each other by
those integers (reviews point at works, comments point at reviews). The
importer walks the files in dependency order, remaps every integer id to a
fresh UUID, and keeps the integer→UUID translation in memory for the
duration of the run.

File set (all relative to the configured data directory):

	category.csv     id,name,slug
	genre.csv        id,name,slug
	titles.csv       id,name,year,category
	genre_title.csv  id,title_id,genre_id   (optional)
	users.csv        id,username,email,role,bio,first_name,last_name
	review.csv       id,title_id,text,author,score,pub_date
	comments.csv     id,review_id,text,author,pub_date

Rows are inserted directly through the pool, not through the services.
After the load the importer recomputes the persisted rating of every work
that gained reviews, so imported catalogues never carry stale aggregates.
*/
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kritika-app/kritika/internal/review"
	"github.com/kritika-app/kritika/pkg/uuidv7"
)

// db is the narrow pool surface the load steps need.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Importer performs a one-shot CSV load into PostgreSQL.
type Importer struct {
	pool    *pgxpool.Pool
	db      db
	logger  *slog.Logger
	dataDir string

	// Integer-id → UUID translation tables, built as files are loaded.
	categoryIDs map[string]string
	genreIDs    map[string]string
	workIDs     map[string]string
	userIDs     map[string]string
	reviewIDs   map[string]string

	// Works whose review set changed during this run.
	touchedWorks map[string]struct{}
}

// New creates an Importer reading CSV files from dataDir.
func New(pool *pgxpool.Pool, logger *slog.Logger, dataDir string) *Importer {
	return &Importer{
		pool:         pool,
		db:           pool,
		logger:       logger,
		dataDir:      dataDir,
		categoryIDs:  make(map[string]string),
		genreIDs:     make(map[string]string),
		workIDs:      make(map[string]string),
		userIDs:      make(map[string]string),
		reviewIDs:    make(map[string]string),
		touchedWorks: make(map[string]struct{}),
	}
}

// Run loads every seed file in dependency order and recomputes ratings.
func (importer *Importer) Run(ctx context.Context) error {
	steps := []struct {
		file     string
		load     func(ctx context.Context, rows []record) error
		optional bool
	}{
		{file: "category.csv", load: importer.loadCategories},
		{file: "genre.csv", load: importer.loadGenres},
		{file: "titles.csv", load: importer.loadWorks},
		{file: "genre_title.csv", load: importer.loadWorkGenres, optional: true},
		{file: "users.csv", load: importer.loadUsers},
		{file: "review.csv", load: importer.loadReviews},
		{file: "comments.csv", load: importer.loadComments},
	}

	for _, step := range steps {
		path := filepath.Join(importer.dataDir, step.file)

		rows, err := readRecords(path)
		if err != nil {
			if step.optional && os.IsNotExist(err) {
				importer.logger.Info("import_file_skipped", slog.String("file", step.file))
				continue
			}
			return fmt.Errorf("importer: %s: %w", step.file, err)
		}

		if err := step.load(ctx, rows); err != nil {
			return fmt.Errorf("importer: %s: %w", step.file, err)
		}

		importer.logger.Info("import_file_loaded",
			slog.String("file", step.file),
			slog.Int("rows", len(rows)),
		)
	}

	return importer.recomputeRatings(ctx)
}

// # CSV Reading

// record is one CSV row keyed by header name.
type record map[string]string

// readRecords parses a headered CSV file into a slice of records.
func readRecords(path string) ([]record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := make(record, len(header))
		for index, name := range header {
			if index < len(fields) {
				row[name] = fields[index]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// # Load Steps

func (importer *Importer) loadCategories(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO catalog.category (id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO NOTHING`

	for _, row := range rows {
		id := uuidv7.Must()
		importer.categoryIDs[row["id"]] = id

		if _, err := importer.db.Exec(ctx, query, id, row["name"], row["slug"]); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return importer.resolveExisting(ctx, "catalog.category", "slug", rows, importer.categoryIDs)
}

func (importer *Importer) loadGenres(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO catalog.genre (id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO NOTHING`

	for _, row := range rows {
		id := uuidv7.Must()
		importer.genreIDs[row["id"]] = id

		if _, err := importer.db.Exec(ctx, query, id, row["name"], row["slug"]); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return importer.resolveExisting(ctx, "catalog.genre", "slug", rows, importer.genreIDs)
}

func (importer *Importer) loadWorks(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO catalog.work (id, name, year, description, categoryid, rating, createdat, updatedat)
		VALUES ($1, $2, $3, '', $4, 0, now(), now())`

	for _, row := range rows {
		categoryID, ok := importer.categoryIDs[row["category"]]
		if !ok {
			return fmt.Errorf("row %s: unknown category %q", row["id"], row["category"])
		}

		year, err := strconv.Atoi(row["year"])
		if err != nil {
			return fmt.Errorf("row %s: bad year %q", row["id"], row["year"])
		}

		id := uuidv7.Must()
		importer.workIDs[row["id"]] = id

		if _, err := importer.db.Exec(ctx, query, id, row["name"], year, categoryID); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return nil
}

func (importer *Importer) loadWorkGenres(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO catalog.workgenre (workid, genreid)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, row := range rows {
		workID, ok := importer.workIDs[row["title_id"]]
		if !ok {
			return fmt.Errorf("row %s: unknown title %q", row["id"], row["title_id"])
		}
		genreID, ok := importer.genreIDs[row["genre_id"]]
		if !ok {
			return fmt.Errorf("row %s: unknown genre %q", row["id"], row["genre_id"])
		}

		if _, err := importer.db.Exec(ctx, query, workID, genreID); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return nil
}

func (importer *Importer) loadUsers(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO users.account (id, username, email, firstname, lastname, bio, role, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT DO NOTHING`

	for _, row := range rows {
		role := row["role"]
		if role == "" {
			role = "user"
		}

		id := uuidv7.Must()
		importer.userIDs[row["id"]] = id

		if _, err := importer.db.Exec(ctx, query,
			id, row["username"], row["email"],
			row["first_name"], row["last_name"], row["bio"], role,
		); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return importer.resolveUsers(ctx, rows)
}

// resolveUsers backfills the id map for user rows absorbed by ON CONFLICT DO
// NOTHING. Unlike the slug tables, users.account has two unique keys: a row
// can be skipped because its username is taken, or because its email already
// belongs to an account under a different username. Both cases map to the
// surviving account so review and comment rows keep valid author references.
func (importer *Importer) resolveUsers(ctx context.Context, rows []record) error {
	const byUsername = `SELECT id FROM users.account WHERE username = $1`
	const byEmail = `SELECT id FROM users.account WHERE email = $1`

	for _, row := range rows {
		var existingID string

		err := importer.db.QueryRow(ctx, byUsername, row["username"]).Scan(&existingID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = importer.db.QueryRow(ctx, byEmail, row["email"]).Scan(&existingID)
			if err == nil {
				importer.logger.Warn("import_user_email_taken",
					slog.String("row", row["id"]),
					slog.String("username", row["username"]),
				)
			}
		}
		if err != nil {
			return fmt.Errorf("resolve user %q: %w", row["username"], err)
		}

		importer.userIDs[row["id"]] = existingID
	}

	return nil
}

func (importer *Importer) loadReviews(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO social.review (id, workid, authorid, score, text, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (workid, authorid) DO NOTHING`

	for _, row := range rows {
		workID, ok := importer.workIDs[row["title_id"]]
		if !ok {
			return fmt.Errorf("row %s: unknown title %q", row["id"], row["title_id"])
		}
		authorID, ok := importer.userIDs[row["author"]]
		if !ok {
			return fmt.Errorf("row %s: unknown author %q", row["id"], row["author"])
		}

		score, err := strconv.Atoi(row["score"])
		if err != nil || score < review.MinScore || score > review.MaxScore {
			return fmt.Errorf("row %s: bad score %q", row["id"], row["score"])
		}

		id := uuidv7.Must()
		importer.reviewIDs[row["id"]] = id
		importer.touchedWorks[workID] = struct{}{}

		if _, err := importer.db.Exec(ctx, query,
			id, workID, authorID, score, row["text"], parseTimestamp(row["pub_date"]),
		); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return nil
}

func (importer *Importer) loadComments(ctx context.Context, rows []record) error {
	const query = `
		INSERT INTO social.comment (id, reviewid, authorid, text, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $5)`

	for _, row := range rows {
		reviewID, ok := importer.reviewIDs[row["review_id"]]
		if !ok {
			return fmt.Errorf("row %s: unknown review %q", row["id"], row["review_id"])
		}
		authorID, ok := importer.userIDs[row["author"]]
		if !ok {
			return fmt.Errorf("row %s: unknown author %q", row["id"], row["author"])
		}

		if _, err := importer.db.Exec(ctx, query,
			uuidv7.Must(), reviewID, authorID, row["text"], parseTimestamp(row["pub_date"]),
		); err != nil {
			return fmt.Errorf("row %s: %w", row["id"], err)
		}
	}

	return nil
}

// # Rating Recompute

// recomputeRatings rebuilds the persisted rating of every work that gained
// reviews during this run. It goes through the same serializable unit the
// API uses, so the stored value obeys the same rounding.
func (importer *Importer) recomputeRatings(ctx context.Context) error {
	if len(importer.touchedWorks) == 0 {
		importer.logger.Info("import_ratings_skipped", slog.String("reason", "no reviews imported"))
		return nil
	}

	store := review.NewPostgresStore(importer.pool)
	aggregator := review.Aggregator{}

	for workID := range importer.touchedWorks {
		err := store.Atomic(ctx, func(ops review.AtomicOps) error {
			_, recomputeErr := aggregator.Recompute(ctx, ops, workID)
			return recomputeErr
		})
		if err != nil {
			return fmt.Errorf("importer: recompute rating for work %s: %w", workID, err)
		}
	}

	importer.logger.Info("import_ratings_recomputed", slog.Int("works", len(importer.touchedWorks)))
	return nil
}

// # Helpers

// resolveExisting backfills the id map for rows that hit ON CONFLICT DO
// NOTHING: their natural key already existed, so the freshly generated UUID
// must be replaced with the id of the surviving row.
func (importer *Importer) resolveExisting(ctx context.Context, table, keyColumn string, rows []record, ids map[string]string) error {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE %s = $1`, table, keyColumn)

	for _, row := range rows {
		var existingID string
		if err := importer.db.QueryRow(ctx, query, row[keyColumn]).Scan(&existingID); err != nil {
			return fmt.Errorf("resolve %s %q: %w", keyColumn, row[keyColumn], err)
		}
		ids[row["id"]] = existingID
	}

	return nil
}

// parseTimestamp reads the seed files' RFC 3339 publication dates,
// falling back to the current time on malformed input.
func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Now().UTC()
	}
	return parsed
}
