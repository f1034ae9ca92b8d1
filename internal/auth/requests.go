package auth

import (
	"strings"

	"github.com/ferrianes/foodmarket-backend/internal/email"
	"github.com/ferrianes/foodmarket-backend/internal/validate"
)

const (
	maxNameLen  = 20
	maxEmailLen = 255
	maxFieldLen = 255
)

// Credentials are used to authenticate a user.
type Credentials struct {
	Email    email.Address
	Password Password
}

// LoginRequest is the raw input of a login attempt.
type LoginRequest struct {
	Email    string `json:"email" schema:"email"`
	Password string `json:"password" schema:"password"`
}

func (r LoginRequest) credentials() (Credentials, error) {
	r.Email = strings.TrimSpace(r.Email)

	rules := append(emailRules("email", r.Email),
		validate.Required("password", r.Password),
		validate.Rule{
			Field: "password",
			Check: func() bool { return len(r.Password) <= maxPasswordBytes },
			Err:   validate.ErrTooLong,
		},
	)

	err := validate.Apply(rules...)
	if err != nil {
		return Credentials{}, err
	}

	return parseCredentials(r.Email, r.Password)
}

// RegisterRequest is the raw input of a registration.
type RegisterRequest struct {
	Name        string `json:"name" schema:"name"`
	Email       string `json:"email" schema:"email"`
	Password    string `json:"password" schema:"password"`
	Address     string `json:"address" schema:"address"`
	HouseNumber string `json:"house_number" schema:"house_number"`
	PhoneNumber string `json:"phone_number" schema:"phone_number"`
	City        string `json:"city" schema:"city"`
}

// user validates the request and turns it into a user without password hash.
func (r RegisterRequest) user() (User, Credentials, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.HouseNumber = strings.TrimSpace(r.HouseNumber)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.City = strings.TrimSpace(r.City)

	var rules []validate.Rule
	rules = append(rules, nameRules(r.Name)...)
	rules = append(rules, emailRules("email", r.Email)...)
	rules = append(rules, PasswordPolicy("password", r.Password)...)
	rules = append(rules, validate.Optional(r.Address, validate.MaxLen("address", r.Address, maxFieldLen))...)
	rules = append(rules, validate.Optional(r.HouseNumber, validate.MaxLen("house_number", r.HouseNumber, maxFieldLen))...)
	rules = append(rules, validate.Optional(r.PhoneNumber, validate.MaxLen("phone_number", r.PhoneNumber, maxFieldLen))...)
	rules = append(rules, validate.Optional(r.City, validate.MaxLen("city", r.City, maxFieldLen))...)

	err := validate.Apply(rules...)
	if err != nil {
		return User{}, Credentials{}, err
	}

	c, err := parseCredentials(r.Email, r.Password)
	if err != nil {
		return User{}, Credentials{}, err
	}

	u := User{
		Name:        r.Name,
		Email:       c.Email,
		Address:     r.Address,
		HouseNumber: r.HouseNumber,
		PhoneNumber: r.PhoneNumber,
		City:        r.City,
		Roles:       RoleUser,
	}

	return u, c, nil
}

// ProfileUpdate lists the profile fields a user may change themselves.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string `json:"name" schema:"name"`
	Address     *string `json:"address" schema:"address"`
	HouseNumber *string `json:"house_number" schema:"house_number"`
	PhoneNumber *string `json:"phone_number" schema:"phone_number"`
	City        *string `json:"city" schema:"city"`
}

func (p ProfileUpdate) normalized() ProfileUpdate {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}

	return ProfileUpdate{
		Name:        trim(p.Name),
		Address:     trim(p.Address),
		HouseNumber: trim(p.HouseNumber),
		PhoneNumber: trim(p.PhoneNumber),
		City:        trim(p.City),
	}
}

func (p ProfileUpdate) validate() error {
	var rules []validate.Rule
	if p.Name != nil {
		rules = append(rules, nameRules(*p.Name)...)
	}

	optional := []struct {
		field string
		v     *string
	}{
		{"address", p.Address},
		{"house_number", p.HouseNumber},
		{"phone_number", p.PhoneNumber},
		{"city", p.City},
	}

	for _, o := range optional {
		if o.v != nil {
			rules = append(rules, validate.MaxLen(o.field, *o.v, maxFieldLen))
		}
	}

	return validate.Apply(rules...)
}

func (p ProfileUpdate) applyTo(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&u.Name, p.Name)
	set(&u.Address, p.Address)
	set(&u.HouseNumber, p.HouseNumber)
	set(&u.PhoneNumber, p.PhoneNumber)
	set(&u.City, p.City)
}

func nameRules(name string) []validate.Rule {
	return []validate.Rule{
		validate.Required("name", name),
		validate.MaxLen("name", name, maxNameLen),
	}
}

func emailRules(field, raw string) []validate.Rule {
	return []validate.Rule{
		validate.Required(field, raw),
		validate.MaxLen(field, raw, maxEmailLen),
		{
			Field: field,
			Check: func() bool {
				_, err := email.ParseAddress(raw)
				return err == nil
			},
			Err: email.ErrInvalidEmail,
		},
	}
}

func parseCredentials(rawEmail, rawPassword string) (Credentials, error) {
	addr, err := email.ParseAddress(rawEmail)
	if err != nil {
		return Credentials{}, err
	}

	pwd, err := ParsePassword(rawPassword)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Email: addr, Password: pwd}, nil
}
