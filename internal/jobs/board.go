// Package jobs keeps a volunteer's view of open and accepted pickups current.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Ridhim15/Danam-Application/internal/donation"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/realtime"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
)

// Button labels per status
const (
	LabelAccept        = "Accept"
	LabelMarkCompleted = "Mark Completed"
	LabelCompleted     = "Completed"
)

// Board is one volunteer's pending list and "my work" list
type Board struct {
	sess      session.Session
	donations store.Donations
	profiles  store.Profiles
	lifecycle *donation.Lifecycle

	mu       sync.Mutex
	pending  []models.DonationJob
	accepted []models.DonationJob
	donors   map[string]models.UserProfile
	// latest is the furthest status seen per donation; rows behind it are stale
	latest map[int64]models.DonationStatus
	gone   map[int64]struct{}
}

// NewBoard returns an empty board for the volunteer of sess
func NewBoard(sess session.Session, donations store.Donations, profiles store.Profiles, lifecycle *donation.Lifecycle) *Board {
	return &Board{
		sess:      sess,
		donations: donations,
		profiles:  profiles,
		lifecycle: lifecycle,
		donors:    make(map[string]models.UserProfile),
		latest:    make(map[int64]models.DonationStatus),
		gone:      make(map[int64]struct{}),
	}
}

// NewJob attaches donor details and the action state to a donation.
// A missing profile or empty fields fall back to placeholders.
func NewJob(d models.DonationRequest, donor *models.UserProfile) models.DonationJob {
	j := models.DonationJob{
		DonationRequest: d,
		DonorName:       models.PlaceholderDonorName,
		DonorAddress:    models.PlaceholderNotSet,
		DonorPhone:      models.PlaceholderNotSet,
		PrimaryType:     d.ItemCounts.PrimaryType(),
	}
	if donor != nil {
		if donor.Name != "" {
			j.DonorName = donor.Name
		}
		if donor.Address != "" {
			j.DonorAddress = donor.Address
		}
		if donor.Phone != "" {
			j.DonorPhone = donor.Phone
		}
	}
	switch d.Status {
	case models.DonationStatusPending:
		j.Label, j.Actionable = LabelAccept, true
	case models.DonationStatusAccepted:
		j.Label, j.Actionable = LabelMarkCompleted, true
	default:
		j.Label, j.Actionable = LabelCompleted, false
	}
	return j
}

// Refresh reloads both lists in full
func (b *Board) Refresh(ctx context.Context) error {
	pending, err := b.donations.ListDonationsByStatus(ctx, models.DonationStatusPending)
	if err != nil {
		return fmt.Errorf("failed to load pending donations: %w", err)
	}
	accepted, err := b.donations.ListDonationsByStatus(ctx, models.DonationStatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to load accepted donations: %w", err)
	}
	completed, err := b.donations.ListCompletedBy(ctx, b.sess.Identity)
	if err != nil {
		return fmt.Errorf("failed to load completed donations: %w", err)
	}
	mine := append(accepted, completed...)
	sortByCreated(mine)

	uids := make([]string, 0, len(pending)+len(mine))
	for _, d := range pending {
		uids = append(uids, d.UID)
	}
	for _, d := range mine {
		uids = append(uids, d.UID)
	}
	donors, err := b.profiles.GetProfiles(ctx, unique(uids))
	if err != nil {
		return fmt.Errorf("failed to load donor profiles: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.donors = donors
	// a row that moved between the list queries shows up twice; keep the later copy
	for _, d := range pending {
		b.observeLocked(d)
	}
	for _, d := range mine {
		b.observeLocked(d)
	}
	b.pending = b.jobsLocked(b.currentLocked(pending))
	b.accepted = b.jobsLocked(b.currentLocked(mine))
	return nil
}

// Apply merges one change event into the lists. Rows older than what the
// board already holds are ignored, and a resync event reloads both lists.
func (b *Board) Apply(ctx context.Context, ev realtime.Event) error {
	if ev.Op == realtime.OpResync {
		return b.Refresh(ctx)
	}
	if ev.Table != "" && ev.Table != realtime.DonationTable {
		return nil
	}
	if ev.Op == realtime.OpDelete {
		b.mu.Lock()
		b.gone[ev.ID] = struct{}{}
		delete(b.latest, ev.ID)
		b.pending = remove(b.pending, ev.ID)
		b.accepted = remove(b.accepted, ev.ID)
		b.mu.Unlock()
		return nil
	}
	if ev.Row == nil {
		return nil
	}
	if err := b.ensureDonor(ctx, ev.Row.UID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyLocked(*ev.Row)
	return nil
}

// Snapshot returns a copy of both lists
func (b *Board) Snapshot() models.JobBoard {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.JobBoard{
		Pending:  append([]models.DonationJob{}, b.pending...),
		Accepted: append([]models.DonationJob{}, b.accepted...),
	}
}

// Watch keeps the board current until ctx is done, calling fn after the initial load and after each event.
// The bus subscription lives exactly as long as the call.
func (b *Board) Watch(ctx context.Context, bus realtime.Bus, fn func(models.JobBoard)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := bus.Subscribe(ctx)
	if err := b.Refresh(ctx); err != nil {
		return err
	}
	fn(b.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if err := b.Apply(ctx, ev); err != nil {
				return err
			}
			fn(b.Snapshot())
		}
	}
}

// Accept accepts a pending donation; the board changes only after the write succeeds
func (b *Board) Accept(ctx context.Context, id int64) (*models.DonationJob, error) {
	d, err := b.lifecycle.Accept(ctx, b.sess, id)
	if err != nil {
		return nil, err
	}
	return b.confirmed(ctx, *d)
}

// Complete completes an accepted donation; the board changes only after the write succeeds
func (b *Board) Complete(ctx context.Context, id int64) (*models.DonationJob, error) {
	d, err := b.lifecycle.Complete(ctx, b.sess, id)
	if err != nil {
		return nil, err
	}
	return b.confirmed(ctx, *d)
}

func (b *Board) confirmed(ctx context.Context, d models.DonationRequest) (*models.DonationJob, error) {
	if err := b.ensureDonor(ctx, d.UID); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if d.Status == models.DonationStatusCompleted && find(b.accepted, d.ID) < 0 {
		// completed by this volunteer, so it belongs on their list
		b.accepted = append(b.accepted, models.DonationJob{DonationRequest: d})
	}
	b.applyLocked(d)
	j := b.jobLocked(d)
	return &j, nil
}

func (b *Board) ensureDonor(ctx context.Context, uid string) error {
	b.mu.Lock()
	_, ok := b.donors[uid]
	b.mu.Unlock()
	if ok {
		return nil
	}
	found, err := b.profiles.GetProfiles(ctx, []string{uid})
	if err != nil {
		return fmt.Errorf("failed to load donor profile: %w", err)
	}
	if p, ok := found[uid]; ok {
		b.mu.Lock()
		b.donors[uid] = p
		b.mu.Unlock()
	}
	return nil
}

// staleLocked reports whether the board already holds d in a later status, or d was deleted
func (b *Board) staleLocked(d models.DonationRequest) bool {
	if _, ok := b.gone[d.ID]; ok {
		return true
	}
	seen, ok := b.latest[d.ID]
	return ok && seen.IsAfter(d.Status)
}

// observeLocked records d's status unless it is stale
func (b *Board) observeLocked(d models.DonationRequest) bool {
	if b.staleLocked(d) {
		return false
	}
	b.latest[d.ID] = d.Status
	return true
}

// currentLocked drops rows whose status is behind the latest seen
func (b *Board) currentLocked(rows []models.DonationRequest) []models.DonationRequest {
	out := make([]models.DonationRequest, 0, len(rows))
	for _, d := range rows {
		if _, ok := b.gone[d.ID]; !ok && b.latest[d.ID] == d.Status {
			out = append(out, d)
		}
	}
	return out
}

func (b *Board) applyLocked(d models.DonationRequest) {
	if !b.observeLocked(d) {
		return
	}
	switch d.Status {
	case models.DonationStatusPending:
		b.accepted = remove(b.accepted, d.ID)
		b.pending = upsert(b.pending, b.jobLocked(d))
	case models.DonationStatusAccepted:
		b.pending = remove(b.pending, d.ID)
		b.accepted = upsert(b.accepted, b.jobLocked(d))
	case models.DonationStatusCompleted:
		b.pending = remove(b.pending, d.ID)
		if i := find(b.accepted, d.ID); i >= 0 {
			b.accepted[i] = b.jobLocked(d)
		}
	}
}

func (b *Board) jobLocked(d models.DonationRequest) models.DonationJob {
	if p, ok := b.donors[d.UID]; ok {
		return NewJob(d, &p)
	}
	return NewJob(d, nil)
}

func (b *Board) jobsLocked(rows []models.DonationRequest) []models.DonationJob {
	out := make([]models.DonationJob, 0, len(rows))
	for _, d := range rows {
		out = append(out, b.jobLocked(d))
	}
	return out
}

func find(list []models.DonationJob, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func remove(list []models.DonationJob, id int64) []models.DonationJob {
	if i := find(list, id); i >= 0 {
		return append(list[:i], list[i+1:]...)
	}
	return list
}

func upsert(list []models.DonationJob, j models.DonationJob) []models.DonationJob {
	if i := find(list, j.ID); i >= 0 {
		list[i] = j
		return list
	}
	return append(list, j)
}

func sortByCreated(rows []models.DonationRequest) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
