// Copyright (c) 2026 Kritika. All rights reserved.

package review

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/dberr"
	"github.com/kritika-app/kritika/internal/platform/postgres"
)

// # PostgreSQL Repository

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed review store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FindByID returns a review with the author's username joined in.
func (store *PostgresStore) FindByID(ctx context.Context, workID, reviewID string) (*Review, error) {
	const query = `
		SELECT r.id, r.workid, r.authorid, a.username, r.score, r.text, r.createdat, r.updatedat
		FROM social.review r
		JOIN users.account a ON a.id = r.authorid
		WHERE r.id = $1 AND r.workid = $2`

	review := &Review{}
	err := store.pool.QueryRow(ctx, query, reviewID, workID).Scan(
		&review.ID,
		&review.WorkID,
		&review.AuthorID,
		&review.Author,
		&review.Score,
		&review.Text,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "review_find")
	}

	return review, nil
}

// ListByWork returns a page of the work's reviews, newest first.
//
// Uses COUNT(*) OVER() so the page and the total arrive in one round-trip.
func (store *PostgresStore) ListByWork(ctx context.Context, workID string, limit, offset int) ([]*Review, int, error) {
	const query = `
		SELECT r.id, r.workid, r.authorid, a.username, r.score, r.text, r.createdat, r.updatedat,
			COUNT(*) OVER() AS total_count
		FROM social.review r
		JOIN users.account a ON a.id = r.authorid
		WHERE r.workid = $1
		ORDER BY r.createdat DESC, r.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := store.pool.Query(ctx, query, workID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "review_list")
	}
	defer rows.Close()

	var reviews []*Review
	total := 0

	for rows.Next() {
		review := &Review{}
		if err := rows.Scan(
			&review.ID,
			&review.WorkID,
			&review.AuthorID,
			&review.Author,
			&review.Score,
			&review.Text,
			&review.CreatedAt,
			&review.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "review_list_scan")
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "review_list_rows")
	}

	return reviews, total, nil
}

// HasReviewByAuthor is the fast duplicate pre-check.
func (store *PostgresStore) HasReviewByAuthor(ctx context.Context, workID, authorID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM social.review WHERE workid = $1 AND authorid = $2
		)`

	var exists bool
	if err := store.pool.QueryRow(ctx, query, workID, authorID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "review_duplicate_check")
	}

	return exists, nil
}

// WorkExists reports whether the work row is present.
func (store *PostgresStore) WorkExists(ctx context.Context, workID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM catalog.work WHERE id = $1)`

	var exists bool
	if err := store.pool.QueryRow(ctx, query, workID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "work_exists_check")
	}

	return exists, nil
}

// Atomic runs fn on a single SERIALIZABLE transaction. Errors are returned
// raw so the coordinator can classify unique violations and 40001 conflicts.
func (store *PostgresStore) Atomic(ctx context.Context, fn func(ops AtomicOps) error) error {
	return postgres.Serializable(ctx, store.pool, func(tx pgx.Tx) error {
		return fn(&txOps{tx: tx})
	})
}

// # Transactional Operations

// txOps implements [AtomicOps] on top of an open transaction.
//
// Methods return raw pgx errors; classification happens in the coordinator
// after the whole unit resolves.
type txOps struct {
	tx pgx.Tx
}

func (ops *txOps) GetReview(ctx context.Context, reviewID string) (*Review, error) {
	const query = `
		SELECT id, workid, authorid, score, text, createdat, updatedat
		FROM social.review
		WHERE id = $1`

	review := &Review{}
	err := ops.tx.QueryRow(ctx, query, reviewID).Scan(
		&review.ID,
		&review.WorkID,
		&review.AuthorID,
		&review.Score,
		&review.Text,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return review, nil
}

func (ops *txOps) InsertReview(ctx context.Context, review *Review) error {
	const query = `
		INSERT INTO social.review (id, workid, authorid, score, text, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := ops.tx.Exec(ctx, query,
		review.ID,
		review.WorkID,
		review.AuthorID,
		review.Score,
		review.Text,
		review.CreatedAt,
		review.UpdatedAt,
	)
	return err
}

func (ops *txOps) UpdateReview(ctx context.Context, review *Review) error {
	const query = `
		UPDATE social.review
		SET score = $2, text = $3, updatedat = $4
		WHERE id = $1`

	tag, err := ops.tx.Exec(ctx, query, review.ID, review.Score, review.Text, review.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (ops *txOps) DeleteReview(ctx context.Context, reviewID string) error {
	const query = `DELETE FROM social.review WHERE id = $1`

	tag, err := ops.tx.Exec(ctx, query, reviewID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (ops *txOps) ListScores(ctx context.Context, workID string) ([]int, error) {
	const query = `SELECT score FROM social.review WHERE workid = $1`

	rows, err := ops.tx.Query(ctx, query, workID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	return scores, rows.Err()
}

func (ops *txOps) SetWorkRating(ctx context.Context, workID string, rating float64) error {
	const query = `UPDATE catalog.work SET rating = $2, updatedat = now() WHERE id = $1`

	tag, err := ops.tx.Exec(ctx, query, workID, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// The work vanished mid-unit; abort the whole transaction.
		return apperr.NotFound("Work")
	}

	return nil
}
