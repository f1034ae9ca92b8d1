package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ferrianes/foodmarket-backend/internal/krypto"
	"github.com/google/uuid"
)

// TokenName is the name given to access tokens issued on login and registration.
const TokenName = "auth_token"

var ErrMalformedToken = errors.New("malformed access token")

// AccessToken is the stored state of a bearer token.
type AccessToken struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
	// TokenHash is the digest of the secret. The secret itself is never stored.
	TokenHash  []byte
	CreatedAt  time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

// PlainToken is an access token as handed to the client: the ID of the
// stored token and its secret, written as "<id>|<secret>".
//
// Like a Password it does not show up in logs or formatted output, only
// Plaintext and MarshalText reveal it.
type PlainToken struct {
	ID     uuid.UUID
	Secret krypto.Token
}

// ParsePlainToken parses the "<id>|<secret>" form of a token.
func ParsePlainToken(raw string) (PlainToken, error) {
	rawID, rawSecret, ok := strings.Cut(raw, "|")
	if !ok {
		return PlainToken{}, ErrMalformedToken
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return PlainToken{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	secret, err := krypto.ParseToken(rawSecret)
	if err != nil {
		return PlainToken{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	return PlainToken{ID: id, Secret: secret}, nil
}

// Plaintext returns the form that clients send back as bearer token.
func (t PlainToken) Plaintext() string {
	return t.ID.String() + "|" + t.Secret.String()
}

func (t PlainToken) MarshalText() ([]byte, error) {
	return []byte(t.Plaintext()), nil
}

func (t PlainToken) Format(f fmt.State, verb rune) {
	f.Write([]byte(SecretMarker))
}

// LogValue implements the slog.LogValuer interface.
func (t PlainToken) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}

// Identity is the user a request was authenticated as, together with
// the token that was presented.
type Identity struct {
	User  User
	Token PlainToken
}

// Tokens issues, resolves and revokes access tokens.
type Tokens struct {
	store Store

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewTokens(s Store) *Tokens {
	return &Tokens{
		store:   s,
		NowFunc: time.Now,
	}
}

// Issue creates a new access token for the user. The returned PlainToken is
// the only time the secret is available.
func (t *Tokens) Issue(ctx context.Context, userID uuid.UUID) (PlainToken, error) {
	secret, err := krypto.GenerateToken()
	if err != nil {
		return PlainToken{}, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return PlainToken{}, err
	}

	tok := AccessToken{
		ID:        id,
		UserID:    userID,
		Name:      TokenName,
		TokenHash: secret.Digest(),
		CreatedAt: t.NowFunc(),
	}

	err = inTx(ctx, t.store, func(tx Tx) error {
		return tx.CreateAccessToken(&tok)
	})
	if err != nil {
		return PlainToken{}, err
	}

	return PlainToken{ID: tok.ID, Secret: secret}, nil
}

// Revoke revokes the token. Revoking an unknown, non-matching or already
// revoked token does nothing.
func (t *Tokens) Revoke(ctx context.Context, pt PlainToken) error {
	return inTx(ctx, t.store, func(tx Tx) error {
		tok, err := findActiveToken(tx, pt)
		if errors.Is(err, ErrUnauthenticated) {
			return nil
		}
		if err != nil {
			return err
		}

		tok.RevokedAt = ptr(t.NowFunc())

		return tx.UpdateAccessToken(&tok)
	})
}

// Resolve returns the identity a raw bearer token belongs to and marks the
// token as used. It returns ErrUnauthenticated when the token is malformed,
// unknown, revoked or doesn't match.
func (t *Tokens) Resolve(ctx context.Context, raw string) (Identity, error) {
	pt, err := ParsePlainToken(raw)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	var id Identity
	err = inTx(ctx, t.store, func(tx Tx) error {
		tok, err := findActiveToken(tx, pt)
		if err != nil {
			return err
		}

		users, err := tx.FindUsers(&UserFilter{
			IDs: []uuid.UUID{tok.UserID},
		})
		if err != nil {
			return err
		}

		if len(users) != 1 {
			return ErrUnauthenticated
		}

		tok.LastUsedAt = ptr(t.NowFunc())
		err = tx.UpdateAccessToken(&tok)
		if err != nil {
			return err
		}

		id = Identity{User: users[0], Token: pt}
		return nil
	})
	if err != nil {
		return Identity{}, err
	}

	return id, nil
}

func findActiveToken(tx Tx, pt PlainToken) (AccessToken, error) {
	toks, err := tx.FindAccessTokens(&AccessTokenFilter{
		IDs:       []uuid.UUID{pt.ID},
		IsRevoked: ptr(false),
	})
	if err != nil {
		return AccessToken{}, err
	}

	if len(toks) != 1 || !pt.Secret.MatchDigest(toks[0].TokenHash) {
		return AccessToken{}, ErrUnauthenticated
	}

	return toks[0], nil
}
