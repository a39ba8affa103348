// Package profile manages the users row of each signed-in person.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/phone"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/go-playground/validator/v10"
)

// Service reads and submits profiles
type Service struct {
	store    store.Profiles
	validate *validator.Validate
}

// NewService returns a profile service over s
func NewService(s store.Profiles) *Service {
	return &Service{store: s, validate: validator.New()}
}

// Get returns the caller's profile. A missing row is reported as Exists=false, not as an error.
func (s *Service) Get(ctx context.Context, sess session.Session) (*models.ProfileResponse, error) {
	p, err := s.store.GetProfile(ctx, sess.Identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &models.ProfileResponse{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &models.ProfileResponse{Exists: true, Profile: p}, nil
}

// fieldMessages are shown for the first failing form field
var fieldMessages = map[string]models.ValidationError{
	"Name":    {Field: "name", Message: "Username is required"},
	"Email":   {Field: "email", Message: "Valid email is required"},
	"Role":    {Field: "role", Message: "Role is required"},
	"Address": {Field: "address", Message: "Address is required"},
}

// Validate checks a submission and returns the normalised role and phone
func (s *Service) Validate(form *models.ProfileForm) (models.Role, string, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Address = strings.TrimSpace(form.Address)

	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if m, ok := fieldMessages[verrs[0].StructField()]; ok {
				return "", "", models.NewValidationError(m.Field, m.Message)
			}
		}
		return "", "", models.NewValidationError("", err.Error())
	}

	role, ok := models.ParseRole(form.Role)
	if !ok {
		return "", "", models.NewValidationError("role", "Role must be one of Donor, NGO, Volunteer")
	}

	number := strings.TrimSpace(form.Phone)
	if number == "" {
		code := form.CountryCode
		if strings.TrimSpace(code) == "" {
			code = phone.DefaultCountryCode
		}
		number = phone.Compose(code, form.PhoneDigits).String()
	}
	if !phone.Valid(number) {
		return "", "", models.NewValidationError("phone", "Valid phone number with country code required")
	}
	return role, number, nil
}

// Submit creates or updates the caller's profile keyed by their identity and reports whether it was created.
// Volunteers also get their contact details mirrored into the volunteer table.
func (s *Service) Submit(ctx context.Context, sess session.Session, form models.ProfileForm) (*models.UserProfile, bool, error) {
	role, number, err := s.Validate(&form)
	if err != nil {
		return nil, false, err
	}

	p := &models.UserProfile{
		AuthUserID: sess.Identity,
		Name:       form.Name,
		Email:      form.Email,
		Role:       role,
		Phone:      number,
		Address:    form.Address,
	}
	created, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save profile: %w", err)
	}

	if role == models.RoleVolunteer {
		v := &models.Volunteer{UID: sess.Identity, Name: p.Name, Address: p.Address, Phone: p.Phone}
		if err := s.store.UpsertVolunteer(ctx, v); err != nil {
			return nil, false, fmt.Errorf("failed to save volunteer details: %w", err)
		}
	}
	return p, created, nil
}

// Role returns the caller's stored role, or store.ErrNotFound without a profile.
// Rows written with another spelling of a known role are normalised.
func (s *Service) Role(ctx context.Context, identity string) (models.Role, error) {
	p, err := s.store.GetProfile(ctx, identity)
	if err != nil {
		return "", err
	}
	if !p.Role.IsValid() {
		if r, ok := models.ParseRole(string(p.Role)); ok {
			return r, nil
		}
	}
	return p.Role, nil
}
