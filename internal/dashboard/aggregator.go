// Package dashboard sums the donations each NGO has received.
package dashboard

import (
	"context"
	"fmt"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/ngo"
	"github.com/Ridhim15/Danam-Application/internal/store"
)

// Aggregator recomputes totals from the donation rows on every call
type Aggregator struct {
	donations store.Donations
	ngos      *ngo.Directory
}

// NewAggregator returns an aggregator
func NewAggregator(donations store.Donations, ngos *ngo.Directory) *Aggregator {
	return &Aggregator{donations: donations, ngos: ngos}
}

// Sum folds item counts into dashboard totals for n
func Sum(n models.NGO, rows []models.ItemCounts) models.DashboardTotals {
	t := models.DashboardTotals{NGO: n}
	for _, c := range rows {
		t.Food += c.Food
		t.Books += c.Books
		t.Clothes += c.Clothes
		t.Medical += c.Meds
	}
	t.Total = t.Food + t.Books + t.Clothes + t.Medical
	t.Donations = len(rows)
	return t
}

// Totals returns the totals for one NGO, all zero when it has no donations.
// Returns store.ErrNotFound when ref matches no directory entry.
func (a *Aggregator) Totals(ctx context.Context, ref string) (*models.DashboardTotals, error) {
	n, err := a.ngos.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return a.totalsFor(ctx, *n)
}

// AllTotals returns the totals of every directory NGO
func (a *Aggregator) AllTotals(ctx context.Context) ([]models.DashboardTotals, error) {
	list, err := a.ngos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ngos: %w", err)
	}
	out := make([]models.DashboardTotals, 0, len(list))
	for _, n := range list {
		t, err := a.totalsFor(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (a *Aggregator) totalsFor(ctx context.Context, n models.NGO) (*models.DashboardTotals, error) {
	rows, err := a.donations.ListItemCountsForNGO(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load donations for %s: %w", n.ID, err)
	}
	t := Sum(n, rows)
	return &t, nil
}
