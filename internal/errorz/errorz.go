// Package errorz contains the error values shared between the service,
// storage and transport layers.
package errorz

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConstraintViolated = errors.New("constraint violated")
	// ErrDuplicate is a constraint violation on a unique column.
	// Errors that wrap it also wrap ErrConstraintViolated.
	ErrDuplicate = errors.New("duplicate value")
)

// MapDBErr translates driver errors into the errors above and returns
// all other errors unchanged. MapDBErr(nil) is nil.
func MapDBErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var sErr sqlite3.Error
	if !errors.As(err, &sErr) || sErr.Code != sqlite3.ErrConstraint {
		return err
	}

	switch sErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return errors.Join(ErrDuplicate, ErrConstraintViolated, err)
	default:
		return errors.Join(ErrConstraintViolated, err)
	}
}
