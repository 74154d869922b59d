// Copyright (c) 2026 Kritika. All rights reserved.

package review

// # Rating Arithmetic

/*
MeanRating computes the mean of the given scores rounded to 2 decimal places.

Description: The computation is performed entirely in integer arithmetic to
avoid floating-point drift. The mean in hundredths is:

	(100 * sum) / count

rounded half-up, which for non-negative integers is equivalent to:

	(200*sum + count) / (2*count)

using truncating integer division. Half-up matches PostgreSQL's ROUND() on
numeric values, so a rating computed in Go and a rating computed in SQL never
disagree on ties (e.g. 4.375 → 4.38).

Parameters:
  - scores: []int (The full visible score set; each 1..10)

Returns:
  - float64: The rounded mean, exactly representable at 2 decimals. 0 when
    the score set is empty.
*/
func MeanRating(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}

	sum := 0
	for _, score := range scores {
		sum += score
	}

	count := len(scores)
	hundredths := (200*sum + count) / (2 * count)

	return float64(hundredths) / 100
}
