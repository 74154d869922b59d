// Copyright (c) 2026 Kritika. All rights reserved.

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Serializable runs fn inside a single SERIALIZABLE transaction.
//
// # Contract
//
// Either every statement issued by fn commits, or none of them do. If fn
// returns an error the transaction is rolled back and that error is returned
// unchanged, so callers can classify it (e.g. as a retryable serialization
// failure) without unwrapping infrastructure noise.
//
// Serializable does NOT retry. Retrying a conflicted unit is a policy
// decision that belongs to the caller, which knows how many attempts the
// operation tolerates.
func Serializable(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin serializable transaction: %w", err)
	}

	// Reclaims the connection if fn panics or returns early.
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		// Serialization conflicts can surface at COMMIT time; hand the raw
		// error back so dberr can classify it.
		return err
	}

	return nil
}
