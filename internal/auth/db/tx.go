package db

import (
	"database/sql"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
)

// Tx implements auth.Tx on top of a write transaction.
type Tx struct {
	tx    *sql.Tx
	store *Store
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// CreateUser creates a user in the database.
// It returns errorz.ErrDuplicate if the email is already taken, ignoring case.
func (t *Tx) CreateUser(u *auth.User) error {
	return insertUser(t.store.newQuery(), t.tx.Exec, u)
}

// UpdateUser writes the profile fields and photo path of a user.
// It returns errorz.ErrNotFound if no user is found.
func (t *Tx) UpdateUser(u *auth.User) error {
	return updateUser(t.store.newQuery(), t.tx.Exec, u)
}

// FindUsers queries for users based on the provided filter.
// It returns an empty slice if no users are found.
func (t *Tx) FindUsers(filter *auth.UserFilter) ([]auth.User, error) {
	return selectUsers(t.store.newQuery(), t.tx.Query, filter)
}

// CreateAccessToken creates an access token in the database.
func (t *Tx) CreateAccessToken(tok *auth.AccessToken) error {
	return insertAccessToken(t.store.newQuery(), t.tx.Exec, tok)
}

// UpdateAccessToken writes the LastUsedAt and RevokedAt fields of a token.
// It returns errorz.ErrNotFound if no token is found.
func (t *Tx) UpdateAccessToken(tok *auth.AccessToken) error {
	return updateAccessToken(t.store.newQuery(), t.tx.Exec, tok)
}

// FindAccessTokens queries for access tokens based on the provided filter.
func (t *Tx) FindAccessTokens(filter *auth.AccessTokenFilter) ([]auth.AccessToken, error) {
	return selectAccessTokens(t.store.newQuery(), t.tx.Query, filter)
}
