package auth

import (
	"time"

	"github.com/ferrianes/foodmarket-backend/internal/email"
	"github.com/ferrianes/foodmarket-backend/internal/krypto"
	"github.com/google/uuid"
)

// RoleUser is the role every registered user starts with.
const RoleUser = "USER"

// User contains the data for a user.
type User struct {
	ID               uuid.UUID
	Name             string
	Email            email.Address
	PasswordHash     krypto.Argon2Hash
	Address          string
	HouseNumber      string
	PhoneNumber      string
	City             string
	ProfilePhotoPath string
	Roles            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserView is the part of a User that is shown to clients.
type UserView struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	Email            email.Address `json:"email"`
	Address          string        `json:"address"`
	HouseNumber      string        `json:"house_number"`
	PhoneNumber      string        `json:"phone_number"`
	City             string        `json:"city"`
	Roles            string        `json:"roles"`
	ProfilePhotoPath string        `json:"profile_photo_path"`
	ProfilePhotoURL  string        `json:"profile_photo_url"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
