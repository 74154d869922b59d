// Copyright (c) 2026 Kritika. All rights reserved.

package review

import "context"

// # Rating Aggregation

// AggregateOps is the narrow data-access surface the [Aggregator] needs.
//
// It is deliberately small: the aggregator must run inside whatever
// transaction the caller already holds, so it receives the transactional ops
// rather than opening its own connection.
type AggregateOps interface {
	// ListScores returns every review score currently visible for the work.
	ListScores(ctx context.Context, workID string) ([]int, error)

	// SetWorkRating persists the computed rating on the work row.
	// Returns apperr.NotFound if the work does not exist.
	SetWorkRating(ctx context.Context, workID string, rating float64) error
}

// Aggregator recomputes a work's derived rating from its full review set.
//
// # Contract
//
// Recompute is a pure function of the review set visible through ops, plus a
// single write. It performs no partial writes: either the rating is updated
// to the freshly computed value, or an error is returned and nothing was
// persisted (the surrounding transaction rolls back).
type Aggregator struct{}

/*
Recompute reads the work's visible scores, computes the rounded mean, and
persists it.

Description: Called inside the review mutation transaction after the mutation
statement, so it sees the post-mutation score set. An empty set persists 0.
Recomputing twice without an intervening mutation yields the same value.

Parameters:
  - ctx: context.Context
  - ops: AggregateOps (Transactional data access)
  - workID: string (UUID of the target work)

Returns:
  - float64: The persisted rating
  - error: NotFound if the work is missing; storage errors otherwise
*/
func (Aggregator) Recompute(ctx context.Context, ops AggregateOps, workID string) (float64, error) {
	scores, err := ops.ListScores(ctx, workID)
	if err != nil {
		return 0, err
	}

	rating := MeanRating(scores)

	if err := ops.SetWorkRating(ctx, workID, rating); err != nil {
		return 0, err
	}

	return rating, nil
}
