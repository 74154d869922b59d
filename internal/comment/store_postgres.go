// Copyright (c) 2026 Kritika. All rights reserved.

package comment

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kritika-app/kritika/internal/platform/dberr"
)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed comment store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (store *PostgresStore) ReviewExists(ctx context.Context, workID, reviewID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM social.review WHERE id = $1 AND workid = $2
		)`

	var exists bool
	if err := store.pool.QueryRow(ctx, query, reviewID, workID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "review_exists_check")
	}

	return exists, nil
}

func (store *PostgresStore) FindByID(ctx context.Context, reviewID, commentID string) (*Comment, error) {
	const query = `
		SELECT c.id, c.reviewid, c.authorid, a.username, c.text, c.createdat, c.updatedat
		FROM social.comment c
		JOIN users.account a ON a.id = c.authorid
		WHERE c.id = $1 AND c.reviewid = $2`

	comment := &Comment{}
	err := store.pool.QueryRow(ctx, query, commentID, reviewID).Scan(
		&comment.ID,
		&comment.ReviewID,
		&comment.AuthorID,
		&comment.Author,
		&comment.Text,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "comment_find")
	}

	return comment, nil
}

func (store *PostgresStore) ListByReview(ctx context.Context, reviewID string, limit, offset int) ([]*Comment, int, error) {
	const query = `
		SELECT c.id, c.reviewid, c.authorid, a.username, c.text, c.createdat, c.updatedat,
			COUNT(*) OVER() AS total_count
		FROM social.comment c
		JOIN users.account a ON a.id = c.authorid
		WHERE c.reviewid = $1
		ORDER BY c.createdat ASC, c.id ASC
		LIMIT $2 OFFSET $3`

	rows, err := store.pool.Query(ctx, query, reviewID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "comment_list")
	}
	defer rows.Close()

	var comments []*Comment
	total := 0

	for rows.Next() {
		comment := &Comment{}
		if err := rows.Scan(
			&comment.ID,
			&comment.ReviewID,
			&comment.AuthorID,
			&comment.Author,
			&comment.Text,
			&comment.CreatedAt,
			&comment.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "comment_list_scan")
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "comment_list_rows")
	}

	return comments, total, nil
}

func (store *PostgresStore) Create(ctx context.Context, comment *Comment) error {
	const query = `
		INSERT INTO social.comment (id, reviewid, authorid, text, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := store.pool.Exec(ctx, query,
		comment.ID,
		comment.ReviewID,
		comment.AuthorID,
		comment.Text,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "comment_create")
	}

	return nil
}

func (store *PostgresStore) Update(ctx context.Context, comment *Comment) error {
	const query = `
		UPDATE social.comment
		SET text = $2, updatedat = $3
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, comment.ID, comment.Text, comment.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "comment_update")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

func (store *PostgresStore) Delete(ctx context.Context, commentID string) error {
	const query = `DELETE FROM social.comment WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, commentID)
	if err != nil {
		return dberr.Wrap(err, "comment_delete")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}
