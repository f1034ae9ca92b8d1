package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferrianes/foodmarket-backend/internal/email"
	"github.com/ferrianes/foodmarket-backend/internal/errorz"
	"github.com/ferrianes/foodmarket-backend/internal/krypto"
	"github.com/ferrianes/foodmarket-backend/internal/validate"
	"github.com/google/uuid"
)

// TokenType is the scheme clients use to present access tokens.
const TokenType = "Bearer"

var (
	// ErrInvalidCredentials is returned for an unknown email as well as a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a request carries no usable access token.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDuplicateEmail  = errors.New("has already been taken")
)

// Session is the result of a successful login or registration.
type Session struct {
	AccessToken PlainToken `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        UserView   `json:"user"`
}

// Service is the type that provides the main rules for
// authentication and the profile of the authenticated user.
type Service struct {
	store  Store
	tokens *Tokens
	photos PhotoStorage

	// comparisonHash is used to compare passwords when no user was found.
	comparisonHash krypto.Argon2Hash

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewService(s Store, tokens *Tokens, photos PhotoStorage) (*Service, error) {
	tok, err := krypto.GenerateToken()
	if err != nil {
		return nil, err
	}

	hash, err := krypto.HashArgon2(tok[:])
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store:          s,
		tokens:         tokens,
		photos:         photos,
		comparisonHash: hash,
		NowFunc:        time.Now,
	}

	return svc, nil
}

// Login checks the credentials in the request and issues a new access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	c, err := req.credentials()
	if err != nil {
		return Session{}, err
	}

	users, err := s.store.FindUsers(ctx, &UserFilter{
		Emails: []email.Address{c.Email},
	})
	if err != nil {
		return Session{}, err
	}

	if len(users) != 1 {
		// Even if no user is found we compare to a hash to prevent timing differences
		// that could result in user enumeration attacks.
		_ = c.Password.Match(s.comparisonHash)
		return Session{}, ErrInvalidCredentials
	}

	if !c.Password.Match(users[0].PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}

	return s.newSession(ctx, users[0])
}

// Register creates a new user and issues its first access token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	user, c, err := req.user()
	if err != nil {
		return Session{}, err
	}

	user.PasswordHash, err = c.Password.Hash()
	if err != nil {
		return Session{}, err
	}

	user.ID, err = uuid.NewRandom()
	if err != nil {
		return Session{}, err
	}

	now := s.NowFunc()
	user.CreatedAt = now
	user.UpdatedAt = now

	err = inTx(ctx, s.store, func(tx Tx) error {
		users, txErr := tx.FindUsers(&UserFilter{
			Emails: []email.Address{user.Email},
		})
		if txErr != nil {
			return txErr
		}

		if len(users) > 0 {
			return duplicateEmail()
		}

		// A concurrent registration can still win between the check above and
		// the insert, the unique index on email catches that case.
		txErr = tx.CreateUser(&user)
		if errors.Is(txErr, errorz.ErrDuplicate) {
			return duplicateEmail()
		}

		return txErr
	})
	if err != nil {
		return Session{}, err
	}

	// The token is issued in its own transaction. If this fails the
	// user exists and can log in to get a token.
	return s.newSession(ctx, user)
}

// Logout revokes the token the identity was authenticated with.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	return s.tokens.Revoke(ctx, id.Token)
}

// Profile returns the current state of the authenticated user.
func (s *Service) Profile(ctx context.Context, id Identity) (UserView, error) {
	user, err := s.findUser(ctx, id.User.ID)
	if err != nil {
		return UserView{}, err
	}

	return s.view(user), nil
}

// UpdateProfile changes the profile fields present in upd.
func (s *Service) UpdateProfile(ctx context.Context, id Identity, upd ProfileUpdate) (UserView, error) {
	upd = upd.normalized()

	err := upd.validate()
	if err != nil {
		return UserView{}, err
	}

	var user User
	err = inTx(ctx, s.store, func(tx Tx) error {
		var txErr error
		user, txErr = findUserTx(tx, id.User.ID)
		if txErr != nil {
			return txErr
		}

		upd.applyTo(&user)
		user.UpdatedAt = s.NowFunc()

		return tx.UpdateUser(&user)
	})
	if err != nil {
		return UserView{}, err
	}

	return s.view(user), nil
}

// UpdatePhoto stores the uploaded image as the profile photo of the
// authenticated user and returns its storage path.
func (s *Service) UpdatePhoto(ctx context.Context, id Identity, up Upload) (string, error) {
	var contentType string
	if up.Content != nil {
		var err error
		contentType, err = detectContentType(up.Content)
		if err != nil {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
	}

	err := validate.Apply(photoRules(up, contentType)...)
	if err != nil {
		return "", err
	}

	name, err := krypto.GenerateToken()
	if err != nil {
		return "", err
	}

	path := photoPath(name.String()[:40], contentType)

	err = s.photos.Save(ctx, path, up.Content, up.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	err = inTx(ctx, s.store, func(tx Tx) error {
		user, txErr := findUserTx(tx, id.User.ID)
		if txErr != nil {
			return txErr
		}

		user.ProfilePhotoPath = path
		user.UpdatedAt = s.NowFunc()

		return tx.UpdateUser(&user)
	})
	if err != nil {
		// The photo is not referenced by anyone, try to clean it up.
		if delErr := s.photos.Delete(ctx, path); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return "", err
	}

	return path, nil
}

func (s *Service) newSession(ctx context.Context, user User) (Session, error) {
	tok, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}

	return Session{
		AccessToken: tok,
		TokenType:   TokenType,
		User:        s.view(user),
	}, nil
}

func (s *Service) view(u User) UserView {
	v := UserView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Address:          u.Address,
		HouseNumber:      u.HouseNumber,
		PhoneNumber:      u.PhoneNumber,
		City:             u.City,
		Roles:            u.Roles,
		ProfilePhotoPath: u.ProfilePhotoPath,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}

	if u.ProfilePhotoPath != "" {
		v.ProfilePhotoURL = s.photos.URL(u.ProfilePhotoPath)
	}

	return v
}

func (s *Service) findUser(ctx context.Context, id uuid.UUID) (User, error) {
	users, err := s.store.FindUsers(ctx, &UserFilter{
		IDs: []uuid.UUID{id},
	})
	if err != nil {
		return User{}, err
	}

	if len(users) != 1 {
		return User{}, errorz.ErrNotFound
	}

	return users[0], nil
}

func findUserTx(tx Tx, id uuid.UUID) (User, error) {
	users, err := tx.FindUsers(&UserFilter{
		IDs: []uuid.UUID{id},
	})
	if err != nil {
		return User{}, err
	}

	if len(users) != 1 {
		return User{}, errorz.ErrNotFound
	}

	return users[0], nil
}

func duplicateEmail() error {
	return errorz.InvalidInput{
		errorz.Keyed{Key: "email", Err: ErrDuplicateEmail},
	}
}
