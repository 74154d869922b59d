// Copyright (c) 2026 Kritika. All rights reserved.

// PostgreSQL implementation of the account store.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] values to avoid leaking storage details.

package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/dberr"
)

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a PostgreSQL backed account store.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, firstname, lastname, bio, role, createdat, updatedat`

// Create persists a new account into users.account.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (id, username, email, firstname, lastname, bio, role, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Username or email is already registered")
		}
		return dberr.Wrap(err, "user_create")
	}

	return nil
}

// FindByID retrieves an account by primary key.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return repository.findBy(ctx, "id", id)
}

// FindByUsername retrieves an account by its unique username.
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return repository.findBy(ctx, "username", username)
}

// FindByEmail retrieves an account by its unique email.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return repository.findBy(ctx, "email", email)
}

// findBy is the shared single-row lookup for the three unique columns.
func (repository *PostgresUserRepository) findBy(ctx context.Context, column, value string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE ` + column + ` = $1`

	user := &User{}
	err := repository.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "user_find")
	}

	return user, nil
}

// List returns a page of accounts matching the optional username search.
func (repository *PostgresUserRepository) List(ctx context.Context, search string, limit, offset int) ([]*User, int, error) {
	const query = `
		SELECT ` + userColumns + `, COUNT(*) OVER() AS total_count
		FROM users.account
		WHERE ($1 = '' OR username ILIKE '%' || $1 || '%')
		ORDER BY username ASC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "user_list")
	}
	defer rows.Close()

	var users []*User
	total := 0

	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Bio,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "user_list_scan")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "user_list_rows")
	}

	return users, total, nil
}

// Update persists the account's mutable fields.
func (repository *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET email = $2, firstname = $3, lastname = $4, bio = $5, role = $6, updatedat = $7
		WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return dberr.Wrap(err, "user_update")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// DeleteByUsername removes an account; authored content cascades.
func (repository *PostgresUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	tag, err := repository.pool.Exec(ctx, `DELETE FROM users.account WHERE username = $1`, username)
	if err != nil {
		return dberr.Wrap(err, "user_delete")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}
