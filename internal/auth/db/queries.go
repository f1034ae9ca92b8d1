package db

import (
	"database/sql"
	"fmt"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
	"github.com/ferrianes/foodmarket-backend/internal/db"
	"github.com/ferrianes/foodmarket-backend/internal/errorz"
	"github.com/google/uuid"
)

// Encrypted columns, also used to bind each ciphertext to its column.
const (
	colAddress     = "address_encrypted"
	colHouseNumber = "house_number_encrypted"
	colPhoneNumber = "phone_number_encrypted"
	colCity        = "city_encrypted"
)

type execFunc func(query string, params ...any) (sql.Result, error)
type queryFunc func(query string, params ...any) (*sql.Rows, error)

func insertUser(q *db.Query, ef execFunc, u *auth.User) error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("zero uuid provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`INSERT INTO users (id, name, email, password_hash, address_encrypted, house_number_encrypted, phone_number_encrypted, city_encrypted, roles, profile_photo_path, created_at, updated_at) VALUES (`)
	q.Params(u.ID, u.Name, u.Email, u.PasswordHash)
	q.Unsafe(`, `)
	writeProfile(q, u)
	q.Unsafe(`, `)
	q.Params(u.Roles, u.ProfilePhotoPath, u.CreatedAt, u.UpdatedAt)
	q.Unsafe(`)`)

	return execOne(q, ef, "user", false)
}

func updateUser(q *db.Query, ef execFunc, u *auth.User) error {
	q.Unsafe(`UPDATE users SET name = `)
	q.Param(u.Name)

	q.Unsafe(`, address_encrypted = `)
	q.ParamEncryptedText(colAddress, u.Address)

	q.Unsafe(`, house_number_encrypted = `)
	q.ParamEncryptedText(colHouseNumber, u.HouseNumber)

	q.Unsafe(`, phone_number_encrypted = `)
	q.ParamEncryptedText(colPhoneNumber, u.PhoneNumber)

	q.Unsafe(`, city_encrypted = `)
	q.ParamEncryptedText(colCity, u.City)

	q.Unsafe(`, profile_photo_path = `)
	q.Param(u.ProfilePhotoPath)

	q.Unsafe(`, updated_at = `)
	q.Param(u.UpdatedAt)

	q.Unsafe(` WHERE id = `)
	q.Param(u.ID)

	return execOne(q, ef, "user", true)
}

func writeProfile(q *db.Query, u *auth.User) {
	q.ParamEncryptedText(colAddress, u.Address)
	q.Unsafe(`, `)
	q.ParamEncryptedText(colHouseNumber, u.HouseNumber)
	q.Unsafe(`, `)
	q.ParamEncryptedText(colPhoneNumber, u.PhoneNumber)
	q.Unsafe(`, `)
	q.ParamEncryptedText(colCity, u.City)
}

func selectUsers(q *db.Query, qf queryFunc, f *auth.UserFilter) ([]auth.User, error) {
	q.Unsafe(`SELECT id, name, email, password_hash, address_encrypted, house_number_encrypted, phone_number_encrypted, city_encrypted, roles, profile_photo_path, created_at, updated_at FROM users WHERE 1=1 `)

	if len(f.IDs) > 0 {
		q.Unsafe(`AND id IN (`)
		q.Params(db.AnySlice(f.IDs)...)
		q.Unsafe(`) `)
	}

	if len(f.Emails) > 0 {
		q.Unsafe(`AND email IN (`)
		q.Params(db.AnySlice(f.Emails)...)
		q.Unsafe(`) `)
	}

	q.Unsafe(`ORDER BY created_at ASC, id ASC`)

	s, params, err := q.Get()
	if err != nil {
		return nil, err
	}

	rows, err := qf(s, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]auth.User, 0)
	for rows.Next() {
		var (
			u           auth.User
			address     = q.DecryptionTarget(colAddress)
			houseNumber = q.DecryptionTarget(colHouseNumber)
			phoneNumber = q.DecryptionTarget(colPhoneNumber)
			city        = q.DecryptionTarget(colCity)
		)

		err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			address, houseNumber, phoneNumber, city,
			&u.Roles, &u.ProfilePhotoPath, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		u.Address = address.String()
		u.HouseNumber = houseNumber.String()
		u.PhoneNumber = phoneNumber.String()
		u.City = city.String()

		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func insertAccessToken(q *db.Query, ef execFunc, tok *auth.AccessToken) error {
	if tok.ID == uuid.Nil {
		return fmt.Errorf("zero uuid provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`INSERT INTO access_tokens (id, user_id, name, token_hash, created_at, last_used_at, revoked_at) VALUES (`)
	q.Params(tok.ID, tok.UserID, tok.Name, tok.TokenHash, tok.CreatedAt, tok.LastUsedAt, tok.RevokedAt)
	q.Unsafe(`)`)

	return execOne(q, ef, "access token", false)
}

func updateAccessToken(q *db.Query, ef execFunc, tok *auth.AccessToken) error {
	q.Unsafe(`UPDATE access_tokens SET last_used_at = `)
	q.Param(tok.LastUsedAt)

	q.Unsafe(`, revoked_at = `)
	q.Param(tok.RevokedAt)

	q.Unsafe(` WHERE id = `)
	q.Param(tok.ID)

	return execOne(q, ef, "access token", true)
}

func selectAccessTokens(q *db.Query, qf queryFunc, f *auth.AccessTokenFilter) ([]auth.AccessToken, error) {
	q.Unsafe(`SELECT id, user_id, name, token_hash, created_at, last_used_at, revoked_at FROM access_tokens WHERE 1=1 `)

	if len(f.IDs) > 0 {
		q.Unsafe(`AND id IN (`)
		q.Params(db.AnySlice(f.IDs)...)
		q.Unsafe(`) `)
	}

	if len(f.UserIDs) > 0 {
		q.Unsafe(`AND user_id IN (`)
		q.Params(db.AnySlice(f.UserIDs)...)
		q.Unsafe(`) `)
	}

	if f.IsRevoked != nil {
		q.Unsafe(`AND revoked_at IS `)
		if *f.IsRevoked {
			q.Unsafe(`NOT `)
		}
		q.Unsafe(`NULL `)
	}

	q.Unsafe(`ORDER BY created_at ASC, id ASC`)

	s, params, err := q.Get()
	if err != nil {
		return nil, err
	}

	rows, err := qf(s, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]auth.AccessToken, 0)
	for rows.Next() {
		var tok auth.AccessToken
		err := rows.Scan(&tok.ID, &tok.UserID, &tok.Name, &tok.TokenHash, &tok.CreatedAt, &tok.LastUsedAt, &tok.RevokedAt)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		out = append(out, tok)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

// execOne runs the query and, if mustAffect is set, fails with
// errorz.ErrNotFound when no row was affected.
func execOne(q *db.Query, ef execFunc, what string, mustAffect bool) error {
	s, params, err := q.Get()
	if err != nil {
		return err
	}

	result, err := ef(s, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if !mustAffect {
		return nil
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if rows == 0 {
		return fmt.Errorf("%s not found: %w", what, errorz.ErrNotFound)
	}

	return nil
}
