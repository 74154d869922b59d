// Copyright (c) 2026 Kritika. All rights reserved.

package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// # Fake Database

// fakeRow satisfies [pgx.Row] for single-column id lookups.
type fakeRow struct {
	id  string
	err error
}

func (row fakeRow) Scan(dest ...any) error {
	if row.err != nil {
		return row.err
	}
	*(dest[0].(*string)) = row.id
	return nil
}

// fakeDB emulates the users.account unique keys the way a target-less
// ON CONFLICT DO NOTHING does: an insert colliding on either the username
// or the email is silently skipped instead of erroring.
type fakeDB struct {
	usernames map[string]string // username -> account id
	emails    map[string]string // email -> account id
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		usernames: make(map[string]string),
		emails:    make(map[string]string),
	}
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "users.account") {
		id, username, email := args[0].(string), args[1].(string), args[2].(string)

		_, usernameTaken := db.usernames[username]
		_, emailTaken := db.emails[email]
		if !usernameTaken && !emailTaken {
			db.usernames[username] = id
			db.emails[email] = id
		}
	}
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	lookup := db.usernames
	if strings.Contains(sql, "email") {
		lookup = db.emails
	}

	if id, ok := lookup[args[0].(string)]; ok {
		return fakeRow{id: id}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func newTestImporter(db *fakeDB) *Importer {
	imported := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), "")
	imported.db = db
	return imported
}

func TestReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "category.csv")
	content := "id,name,slug\n1,Films,films\n2,Books,books\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rows, err := readRecords(path)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Films", rows[0]["name"])
	assert.Equal(t, "books", rows[1]["slug"])
}

func TestReadRecords_MissingFile(t *testing.T) {
	_, err := readRecords(filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "missing files must stay detectable for optional steps")
}

func TestReadRecords_QuotedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.csv")
	content := "id,text\n1,\"multi, word, text\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rows, err := readRecords(path)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "multi, word, text", rows[0]["text"])
}

// # User Loading

func TestLoadUsers_FreshRowsKeepGeneratedIDs(t *testing.T) {
	db := newFakeDB()
	imported := newTestImporter(db)

	rows := []record{
		{"id": "1", "username": "bookworm", "email": "bookworm@example.com", "role": "user"},
		{"id": "2", "username": "moderato", "email": "moderato@example.com", "role": "moderator"},
	}
	require.NoError(t, imported.loadUsers(context.Background(), rows))

	assert.Equal(t, db.usernames["bookworm"], imported.userIDs["1"])
	assert.Equal(t, db.usernames["moderato"], imported.userIDs["2"])
	assert.NotEqual(t, imported.userIDs["1"], imported.userIDs["2"])
}

func TestLoadUsers_RerunMapsToExistingAccount(t *testing.T) {
	db := newFakeDB()
	imported := newTestImporter(db)

	rows := []record{{"id": "1", "username": "bookworm", "email": "bookworm@example.com", "role": "user"}}
	require.NoError(t, imported.loadUsers(context.Background(), rows))
	firstID := imported.userIDs["1"]

	// Re-running the same seed file must be a no-op, not a constraint error.
	rerun := newTestImporter(db)
	require.NoError(t, rerun.loadUsers(context.Background(), rows))

	assert.Equal(t, firstID, rerun.userIDs["1"])
}

// A seed row reusing an existing email under a new username must not abort
// the import; it maps to the account that owns the email.
func TestLoadUsers_EmailCollisionMapsToExistingAccount(t *testing.T) {
	db := newFakeDB()
	imported := newTestImporter(db)

	require.NoError(t, imported.loadUsers(context.Background(), []record{
		{"id": "1", "username": "bookworm", "email": "shared@example.com", "role": "user"},
	}))
	ownerID := imported.userIDs["1"]

	require.NoError(t, imported.loadUsers(context.Background(), []record{
		{"id": "9", "username": "bookworm_two", "email": "shared@example.com", "role": "user"},
	}))

	assert.Equal(t, ownerID, imported.userIDs["9"])
	assert.NotContains(t, db.usernames, "bookworm_two")
}

func TestParseTimestamp(t *testing.T) {
	parsed := parseTimestamp("2019-09-24T21:08:21Z")
	assert.Equal(t, time.Date(2019, 9, 24, 21, 8, 21, 0, time.UTC), parsed)

	// Malformed input falls back to "now" rather than failing the import.
	fallback := parseTimestamp("not-a-date")
	assert.WithinDuration(t, time.Now().UTC(), fallback, time.Minute)
}
