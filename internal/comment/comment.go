// Copyright (c) 2026 Kritika. All rights reserved.

// Package comment implements threaded discussion under reviews.
//
// Comments are plain text attached to a single review. Unlike reviews they
// carry no score and never touch the work's rating, so mutations here need no
// serializable coordination.
package comment

import "time"

// Comment is a single remark under a review.
type Comment struct {
	ID       string `json:"id"`
	ReviewID string `json:"review_id"`
	AuthorID string `json:"author_id"`
	// Author is the comment author's username, joined in for responses.
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
