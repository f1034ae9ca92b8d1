package auth

import (
	"context"
	"errors"

	"github.com/ferrianes/foodmarket-backend/internal/email"
	"github.com/google/uuid"
)

// UserFilter is used filter users.
// Returned users must match all the provided fields.
// If a field is empty or nil, it's ignored.
type UserFilter struct {
	IDs    []uuid.UUID
	Emails []email.Address
}

// AccessTokenFilter is used to filter access tokens.
// Returned tokens must match all the provided fields.
// If a field is empty or nil, it's ignored.
type AccessTokenFilter struct {
	IDs       []uuid.UUID
	UserIDs   []uuid.UUID
	IsRevoked *bool
}

// Store provides access to the user store.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
	FindUsers(ctx context.Context, filter *UserFilter) ([]User, error)
}

// Tx is a transaction. If an error occurs on any of the Create/Update/Find methods,
// the transaction is considered to have failed and should be rolled back.
// Tx is not safe for concurrent use.
type Tx interface {
	Commit() error
	Rollback() error

	// CreateUser fails with errorz.ErrDuplicate if the email is taken.
	CreateUser(u *User) error
	// UpdateUser only writes the profile fields and the photo path.
	UpdateUser(u *User) error
	FindUsers(filter *UserFilter) ([]User, error)

	CreateAccessToken(t *AccessToken) error
	// UpdateAccessToken only writes LastUsedAt and RevokedAt.
	UpdateAccessToken(t *AccessToken) error
	FindAccessTokens(filter *AccessTokenFilter) ([]AccessToken, error)
}

// inTx commits if f succeeds and rolls back otherwise.
func inTx(ctx context.Context, s Store, f func(tx Tx) error) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := f(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	return tx.Commit()
}

func ptr[T any](v T) *T {
	return &v
}
