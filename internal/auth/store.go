// Copyright (c) 2026 Kritika. All rights reserved.

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for accounts.
type UserRepository interface {

	/*
		Create persists a new account.

		Returns:
		  - error: apperr.Conflict if username or email is taken
	*/
	Create(ctx context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	FindByUsername(ctx context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		List returns a page of accounts matching the optional username search.
	*/
	List(ctx context.Context, search string, limit, offset int) ([]*User, int, error)

	/*
		Update persists the account's mutable fields.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Update(ctx context.Context, user *User) error

	/*
		DeleteByUsername removes the account. Reviews and comments authored
		by it cascade in storage.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	DeleteByUsername(ctx context.Context, username string) error
}

// # Confirmation Code Storage

// CodeRepository stores bcrypt hashes of signup confirmation codes under a
// TTL. Backed by Redis so abandoned signups expire without cleanup jobs.
type CodeRepository interface {
	// SaveCodeHash stores the code hash for the user, replacing any previous
	// one and resetting the TTL.
	SaveCodeHash(ctx context.Context, userID, codeHash string, ttl time.Duration) error

	// GetCodeHash returns the stored hash, or apperr.NotFound when the code
	// expired or was never issued.
	GetCodeHash(ctx context.Context, userID string) (string, error)

	// DeleteCode invalidates the code after successful use.
	DeleteCode(ctx context.Context, userID string) error
}

// # Delivery

// Mailer delivers the confirmation code to the user, out-of-band.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, username, code string) error
}
