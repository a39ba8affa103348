// Package donation creates donation requests and moves them through
// pending, accepted and completed.
package donation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/ngo"
	"github.com/Ridhim15/Danam-Application/internal/realtime"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
)

// Creator turns schedule-pickup submissions into donation rows
type Creator struct {
	profiles  store.Profiles
	donations store.Donations
	ngos      *ngo.Directory
	bus       realtime.Bus
}

// NewCreator returns a creator. bus may be nil.
func NewCreator(profiles store.Profiles, donations store.Donations, ngos *ngo.Directory, bus realtime.Bus) *Creator {
	return &Creator{profiles: profiles, donations: donations, ngos: ngos, bus: bus}
}

// Counts validates the item lines and sums them per category
func Counts(items []models.DonationItem) (models.ItemCounts, error) {
	var counts models.ItemCounts
	if len(items) == 0 {
		return counts, models.NewValidationError("items", "Please add at least one item to your donation")
	}
	for _, item := range items {
		t, ok := models.ParseItemType(item.Type)
		if !ok {
			return models.ItemCounts{}, models.NewValidationError("items", fmt.Sprintf("Unknown item type %q", item.Type))
		}
		if item.Quantity < 1 {
			return models.ItemCounts{}, models.NewValidationError("items", fmt.Sprintf("Quantity for %s must be at least 1", t))
		}
		counts.Add(t, item.Quantity)
	}
	return counts, nil
}

// Create inserts one pending donation owned by the caller.
// Nothing is written when validation fails, and an insert failure is returned as-is.
func (c *Creator) Create(ctx context.Context, sess session.Session, req models.CreateDonationRequest) (*models.DonationRequest, error) {
	if strings.TrimSpace(req.NGO) == "" {
		return nil, models.NewValidationError("ngo", "Please select an NGO for your donation")
	}
	counts, err := Counts(req.Items)
	if err != nil {
		return nil, err
	}

	target, err := c.ngos.Resolve(ctx, req.NGO)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewValidationError("ngo", "Selected NGO was not found")
		}
		return nil, fmt.Errorf("failed to resolve ngo: %w", err)
	}

	if _, err := c.profiles.GetProfile(ctx, sess.Identity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewValidationError("uid", "Could not verify your user account. Please try again.")
		}
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	d := &models.DonationRequest{
		ItemCounts: counts,
		NGO:        target.Name,
		NGOID:      target.ID,
		Status:     models.DonationStatusPending,
		UID:        sess.Identity,
	}
	if err := c.donations.InsertDonation(ctx, d); err != nil {
		return nil, err
	}

	publish(ctx, c.bus, realtime.DonationEvent(realtime.OpInsert, *d))
	return d, nil
}

// ListMine returns the caller's own donations, newest first
func (c *Creator) ListMine(ctx context.Context, sess session.Session) ([]models.DonationRequest, error) {
	return c.donations.ListDonationsByOwner(ctx, sess.Identity)
}

func publish(ctx context.Context, bus realtime.Bus, ev realtime.Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, ev); err != nil {
		log.Printf("[DANAM-DONATION] Failed to publish %s for donation %d: %v", ev.Op, ev.ID, err)
	}
}
