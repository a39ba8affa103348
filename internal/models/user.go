package models

import (
	"strings"
	"time"
)

// Role represents the part a person plays in the app
type Role string

const (
	RoleDonor     Role = "Donor"
	RoleNGO       Role = "NGO"
	RoleVolunteer Role = "Volunteer"
)

// Roles lists every role a profile may carry, in display order
var Roles = []Role{RoleDonor, RoleNGO, RoleVolunteer}

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleVolunteer:
		return true
	default:
		return false
	}
}

// ParseRole matches a role case-insensitively. Unknown values are rejected.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// UserProfile is the identity record stored in the users table, keyed by auth_user_id
type UserProfile struct {
	ID         int64     `json:"id" db:"id"`
	AuthUserID string    `json:"auth_user_id" db:"auth_user_id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Role       Role      `json:"role" db:"role"`
	Phone      string    `json:"phone" db:"phone"`
	Address    string    `json:"address" db:"address"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Volunteer mirrors a volunteer's contact details into the volunteer table
type Volunteer struct {
	UID     string `json:"uid" db:"uid"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	Phone   string `json:"phone" db:"phone"`
}

// ProfileForm is the profile submission payload.
// Phone may be sent whole, or as CountryCode + PhoneDigits.
type ProfileForm struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Role        string `json:"role" validate:"required"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
	PhoneDigits string `json:"phone_digits"`
	Address     string `json:"address" validate:"required"`
}

// ProfileResponse is returned by the profile read endpoint.
// A missing profile is a normal state that drives the "create" path.
type ProfileResponse struct {
	Exists  bool         `json:"exists"`
	Profile *UserProfile `json:"profile,omitempty"`
}
