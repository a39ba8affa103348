// Package store defines the persistence surface the services depend on.
// internal/db implements it on Postgres and internal/memstore in memory.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ridhim15/Danam-Application/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// ErrConflict is matched by *ConflictError via errors.Is
var ErrConflict = errors.New("status conflict")

// ConflictError reports a conditional status write whose expected prior state did not match
type ConflictError struct {
	DonationID int64
	Current    models.DonationStatus
	Target     models.DonationStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("donation %d is %s and cannot move to %s", e.DonationID, e.Current, e.Target)
}

// Is makes errors.Is(err, ErrConflict) true for conflict errors
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Profiles reads and writes the users and volunteer tables
type Profiles interface {
	GetProfile(ctx context.Context, authUserID string) (*models.UserProfile, error)
	GetProfiles(ctx context.Context, authUserIDs []string) (map[string]models.UserProfile, error)
	// UpsertProfile inserts or updates by auth_user_id and reports whether a row was created
	UpsertProfile(ctx context.Context, p *models.UserProfile) (bool, error)
	UpsertVolunteer(ctx context.Context, v *models.Volunteer) error
}

// Donations reads and writes the donation and donation_status_history tables
type Donations interface {
	InsertDonation(ctx context.Context, d *models.DonationRequest) error
	GetDonation(ctx context.Context, id int64) (*models.DonationRequest, error)
	ListDonationsByStatus(ctx context.Context, status models.DonationStatus) ([]models.DonationRequest, error)
	ListDonationsByOwner(ctx context.Context, uid string) ([]models.DonationRequest, error)
	// ListCompletedBy returns completed donations whose completion was written by changedBy
	ListCompletedBy(ctx context.Context, changedBy string) ([]models.DonationRequest, error)
	// ListItemCountsForNGO returns the counts of every donation targeting the NGO
	ListItemCountsForNGO(ctx context.Context, ngo models.NGO) ([]models.ItemCounts, error)
	// TransitionStatus applies a conditional status write and records it in the history.
	// A row already in t.To is returned as is with changed=false and no history row.
	// Returns ErrNotFound or a *ConflictError when the transition does not match.
	TransitionStatus(ctx context.Context, t models.Transition) (d *models.DonationRequest, changed bool, err error)
	StatusHistory(ctx context.Context, donationID int64) ([]models.DonationStatusChange, error)
}

// NGOs reads and writes the NGO directory
type NGOs interface {
	ListNGOs(ctx context.Context) ([]models.NGO, error)
	GetNGO(ctx context.Context, id string) (*models.NGO, error)
	UpsertNGO(ctx context.Context, n *models.NGO) error
}

// Store is the full persistence surface
type Store interface {
	Profiles
	Donations
	NGOs
	Health(ctx context.Context) error
	Close()
}
