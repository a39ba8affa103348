// Package memstore is an in-process store.Store used in development mode and in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every table in maps guarded by one mutex
type Store struct {
	mu sync.Mutex

	profiles   map[string]models.UserProfile
	volunteers map[string]models.Volunteer
	donations  map[int64]models.DonationRequest
	history    []models.DonationStatusChange
	ngos       map[string]models.NGO

	nextProfileID  int64
	nextDonationID int64
	nextHistoryID  int64

	now func() time.Time
}

// New returns an empty store
func New() *Store {
	return &Store{
		profiles:   make(map[string]models.UserProfile),
		volunteers: make(map[string]models.Volunteer),
		donations:  make(map[int64]models.DonationRequest),
		ngos:       make(map[string]models.NGO),
		now:        time.Now,
	}
}

// Volunteer returns the mirrored volunteer row, if any
func (s *Store) Volunteer(uid string) (models.Volunteer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volunteers[uid]
	return v, ok
}

// ProfileCount returns the number of profile rows
func (s *Store) ProfileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// GetProfile returns the profile of one auth identity, or store.ErrNotFound
func (s *Store) GetProfile(ctx context.Context, authUserID string) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[authUserID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// GetProfiles returns the profiles that exist among authUserIDs, keyed by identity
func (s *Store) GetProfiles(ctx context.Context, authUserIDs []string) (map[string]models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.UserProfile, len(authUserIDs))
	for _, id := range authUserIDs {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// UpsertProfile inserts or updates by auth identity and reports whether a row was created
func (s *Store) UpsertProfile(ctx context.Context, p *models.UserProfile) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	existing, ok := s.profiles[p.AuthUserID]
	if ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		s.nextProfileID++
		p.ID = s.nextProfileID
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.AuthUserID] = *p
	return !ok, nil
}

// UpsertVolunteer inserts or replaces the volunteer row of v.UID
func (s *Store) UpsertVolunteer(ctx context.Context, v *models.Volunteer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volunteers[v.UID] = *v
	return nil
}

// InsertDonation assigns an id and creation time and stores d
func (s *Store) InsertDonation(ctx context.Context, d *models.DonationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDonationID++
	d.ID = s.nextDonationID
	d.CreatedAt = s.now()
	s.donations[d.ID] = *d
	return nil
}

// GetDonation returns one donation, or store.ErrNotFound
func (s *Store) GetDonation(ctx context.Context, id int64) (*models.DonationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

// filter returns matching donations ordered by creation, oldest first
func (s *Store) filter(keep func(models.DonationRequest) bool) []models.DonationRequest {
	var out []models.DonationRequest
	for _, d := range s.donations {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ListDonationsByStatus returns donations in status, oldest first
func (s *Store) ListDonationsByStatus(ctx context.Context, status models.DonationStatus) ([]models.DonationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(d models.DonationRequest) bool { return d.Status == status }), nil
}

// ListDonationsByOwner returns uid's donations, newest first
func (s *Store) ListDonationsByOwner(ctx context.Context, uid string) ([]models.DonationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(func(d models.DonationRequest) bool { return d.UID == uid })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ListCompletedBy returns completed donations whose completion changedBy wrote
func (s *Store) ListCompletedBy(ctx context.Context, changedBy string) ([]models.DonationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	completedBy := make(map[int64]bool)
	for _, h := range s.history {
		if h.NewStatus == models.DonationStatusCompleted && h.ChangedBy == changedBy {
			completedBy[h.DonationID] = true
		}
	}
	return s.filter(func(d models.DonationRequest) bool {
		return d.Status == models.DonationStatusCompleted && completedBy[d.ID]
	}), nil
}

// ListItemCountsForNGO returns counts of donations for ngo by id, or by name for rows without one
func (s *Store) ListItemCountsForNGO(ctx context.Context, ngo models.NGO) ([]models.ItemCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.filter(func(d models.DonationRequest) bool {
		return d.NGOID == ngo.ID || (d.NGOID == "" && d.NGO == ngo.Name)
	})
	out := make([]models.ItemCounts, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.ItemCounts)
	}
	return out, nil
}

// TransitionStatus applies t and appends a history row when the status changes
func (s *Store) TransitionStatus(ctx context.Context, t models.Transition) (*models.DonationRequest, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[t.DonationID]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	if !t.Allows(d.Status) {
		return nil, false, &store.ConflictError{DonationID: d.ID, Current: d.Status, Target: t.To}
	}
	if d.Status == t.To {
		return &d, false, nil
	}
	old := d.Status
	d.Status = t.To
	s.donations[d.ID] = d
	s.nextHistoryID++
	s.history = append(s.history, models.DonationStatusChange{
		ID:         s.nextHistoryID,
		DonationID: d.ID,
		OldStatus:  old,
		NewStatus:  t.To,
		ChangedBy:  t.ChangedBy,
		CreatedAt:  s.now(),
	})
	return &d, true, nil
}

// StatusHistory returns the recorded changes of one donation in order
func (s *Store) StatusHistory(ctx context.Context, donationID int64) ([]models.DonationStatusChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DonationStatusChange
	for _, h := range s.history {
		if h.DonationID == donationID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ListNGOs returns the directory sorted by name
func (s *Store) ListNGOs(ctx context.Context) ([]models.NGO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NGO, 0, len(s.ngos))
	for _, n := range s.ngos {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetNGO returns one NGO by id, or store.ErrNotFound
func (s *Store) GetNGO(ctx context.Context, id string) (*models.NGO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ngos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

// UpsertNGO inserts or replaces an NGO by id
func (s *Store) UpsertNGO(ctx context.Context, n *models.NGO) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ngos[n.ID] = *n
	return nil
}

// Health always succeeds
func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *Store) Close() {}
