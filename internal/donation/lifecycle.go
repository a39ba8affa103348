package donation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/realtime"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"golang.org/x/sync/errgroup"
)

// TransitionMode decides what a second write of the same step does
type TransitionMode string

const (
	// ModeStrict only moves rows that are in the expected prior status.
	// Of two concurrent accepts exactly one succeeds.
	ModeStrict TransitionMode = "strict"
	// ModeLegacy also matches rows already in the target status, so a repeated
	// accept rewrites "accepted" and succeeds. Rows never move backwards.
	ModeLegacy TransitionMode = "legacy"
)

// ParseTransitionMode reads a mode name; empty means strict
func ParseTransitionMode(s string) (TransitionMode, error) {
	switch TransitionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown transition mode %q", s)
	}
}

// Donor notifications run in the background, at most maxNotifications at a time
const (
	maxNotifications = 32
	notifyTimeout    = 15 * time.Second
)

// Notifier is told about every successful status write
type Notifier interface {
	DonationStatusChanged(ctx context.Context, d models.DonationRequest) error
}

// Lifecycle applies volunteer actions to donations
type Lifecycle struct {
	donations store.Donations
	bus       realtime.Bus
	notifier  Notifier
	mode      TransitionMode
	sends     *errgroup.Group
}

// NewLifecycle returns a lifecycle updater. bus and notifier may be nil.
func NewLifecycle(donations store.Donations, bus realtime.Bus, notifier Notifier, mode TransitionMode) *Lifecycle {
	if mode == "" {
		mode = ModeStrict
	}
	sends := new(errgroup.Group)
	sends.SetLimit(maxNotifications)
	return &Lifecycle{donations: donations, bus: bus, notifier: notifier, mode: mode, sends: sends}
}

// Wait blocks until every donor notification already started has finished
func (l *Lifecycle) Wait() {
	_ = l.sends.Wait()
}

// Mode returns the configured transition mode
func (l *Lifecycle) Mode() TransitionMode {
	return l.mode
}

// Accept moves a pending donation to accepted
func (l *Lifecycle) Accept(ctx context.Context, sess session.Session, id int64) (*models.DonationRequest, error) {
	return l.move(ctx, sess, id, models.DonationStatusPending, models.DonationStatusAccepted)
}

// Complete moves an accepted donation to completed
func (l *Lifecycle) Complete(ctx context.Context, sess session.Session, id int64) (*models.DonationRequest, error) {
	return l.move(ctx, sess, id, models.DonationStatusAccepted, models.DonationStatusCompleted)
}

// History returns the recorded status writes of a donation.
// Returns store.ErrNotFound when the donation does not exist.
func (l *Lifecycle) History(ctx context.Context, id int64) ([]models.DonationStatusChange, error) {
	if _, err := l.donations.GetDonation(ctx, id); err != nil {
		return nil, err
	}
	return l.donations.StatusHistory(ctx, id)
}

// Transition builds the conditional write for one step under the configured mode
func (l *Lifecycle) Transition(sess session.Session, id int64, from, to models.DonationStatus) models.Transition {
	t := models.Transition{DonationID: id, From: []models.DonationStatus{from}, To: to, ChangedBy: sess.Identity}
	if l.mode == ModeLegacy {
		t.From = append(t.From, to)
	}
	return t
}

func (l *Lifecycle) move(ctx context.Context, sess session.Session, id int64, from, to models.DonationStatus) (*models.DonationRequest, error) {
	d, changed, err := l.donations.TransitionStatus(ctx, l.Transition(sess, id, from, to))
	if err != nil {
		return nil, err
	}
	if !changed {
		// repeated step in legacy mode, nothing new to announce
		return d, nil
	}

	publish(ctx, l.bus, realtime.DonationEvent(realtime.OpUpdate, *d))
	l.notify(ctx, *d)
	return d, nil
}

// notify texts the donor without holding up the volunteer's request.
// When too many sends are in flight the notification is skipped.
func (l *Lifecycle) notify(ctx context.Context, d models.DonationRequest) {
	if l.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	started := l.sends.TryGo(func() error {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := l.notifier.DonationStatusChanged(ctx, d); err != nil {
			log.Printf("[DANAM-DONATION] Failed to notify donor of donation %d: %v", d.ID, err)
		}
		return nil
	})
	if !started {
		log.Printf("[DANAM-DONATION] Too many notifications in flight, skipped donation %d", d.ID)
	}
}
