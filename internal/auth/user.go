// Copyright (c) 2026 Kritika. All rights reserved.

/*
Package auth implements identity for Kritika: signup, token issuance, and
user administration.

Signup Handshake:

 1. POST /auth/signup with username + email registers the account (or finds
    the exact existing pair) and issues a short-lived confirmation code.
 2. The code is delivered out-of-band via the [Mailer]; only its bcrypt hash
    is stored, in Redis, under a TTL.
 3. POST /auth/token exchanges username + code for an RS256 JWT.

There are no passwords. Possession of the mailbox is the credential, so a
leaked cache never yields a usable code.
*/
package auth

import (
	"time"

	"github.com/kritika-app/kritika/internal/platform/sec"
)

// User is a registered Kritika account.
type User struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name,omitempty"`
	LastName  string       `json:"last_name,omitempty"`
	Bio       string       `json:"bio,omitempty"`
	Role      sec.UserRole `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TokenResponse is the payload returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}
