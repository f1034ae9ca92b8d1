// Package db implements auth.Store on top of SQLite.
package db

import (
	"context"
	"database/sql"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
	"github.com/ferrianes/foodmarket-backend/internal/db"
	"github.com/ferrianes/foodmarket-backend/internal/krypto"
)

// Store is responsible for interacting with a database.
// Writes go through writeDB, reads outside of transactions through readDB.
type Store struct {
	writeDB   *sql.DB
	readDB    *sql.DB
	encryptor *krypto.Encryptor
}

// New creates a new Store. The encryptor is used for the personal
// details of users.
func New(writeDB, readDB *sql.DB, encryptor *krypto.Encryptor) *Store {
	return &Store{
		writeDB:   writeDB,
		readDB:    readDB,
		encryptor: encryptor,
	}
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (auth.Tx, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{
		tx:    tx,
		store: s,
	}, nil
}

// FindUsers queries for users outside of a transaction.
// It returns an empty slice if no users are found.
func (s *Store) FindUsers(ctx context.Context, filter *auth.UserFilter) ([]auth.User, error) {
	return selectUsers(s.newQuery(), func(q string, params ...any) (*sql.Rows, error) {
		return s.readDB.QueryContext(ctx, q, params...)
	}, filter)
}

func (s *Store) newQuery() *db.Query {
	return &db.Query{
		Encryptor: s.encryptor,
	}
}
