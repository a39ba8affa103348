// Package ngo is the directory of recipient organisations. Each entry has a
// stable id derived from its name, so donations no longer depend on free text.
package ngo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/gosimple/slug"
)

// defaults is the directory the app shipped with
var defaults = []struct{ name, email string }{
	{"Kalpvriksh - Ek Chota Prayas NGO", "kalpvriksh@ngo.org"},
	{"GARV - a genius and real voice NGO", "garv@ngo.org"},
	{"Self Awakening Mission NGO", "selfawakening@ngo.org"},
	{"Scope for Change", "scopeforchange@ngo.org"},
	{"Guru daani foundation", "gurudaani@foundation.org"},
}

// DefaultNGOs returns the seed entries with their ids
func DefaultNGOs() []models.NGO {
	out := make([]models.NGO, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, models.NGO{ID: ID(d.name), Name: d.name, Email: d.email})
	}
	return out
}

// ID derives the stable identifier of an NGO name
func ID(name string) string {
	return slug.Make(name)
}

// Directory resolves NGO references against the ngos table
type Directory struct {
	store store.NGOs
}

// NewDirectory returns a directory over s
func NewDirectory(s store.NGOs) *Directory {
	return &Directory{store: s}
}

// Seed inserts the default NGOs, updating their names and emails if present
func (d *Directory) Seed(ctx context.Context) error {
	for _, n := range DefaultNGOs() {
		n := n
		if err := d.store.UpsertNGO(ctx, &n); err != nil {
			return fmt.Errorf("failed to seed ngo %s: %w", n.ID, err)
		}
	}
	log.Printf("[DANAM-NGO] Seeded %d NGOs", len(defaults))
	return nil
}

// List returns every NGO
func (d *Directory) List(ctx context.Context) ([]models.NGO, error) {
	return d.store.ListNGOs(ctx)
}

// Resolve finds an NGO by id, by display name, or by a name prefix that matches exactly one entry.
// Returns store.ErrNotFound when nothing or more than one entry matches.
func (d *Directory) Resolve(ctx context.Context, ref string) (*models.NGO, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, store.ErrNotFound
	}

	n, err := d.store.GetNGO(ctx, ref)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	key := ID(ref)
	if key == "" {
		return nil, store.ErrNotFound
	}
	all, err := d.store.ListNGOs(ctx)
	if err != nil {
		return nil, err
	}

	var match *models.NGO
	for i := range all {
		if all[i].ID == key || strings.EqualFold(all[i].Name, ref) {
			return &all[i], nil
		}
		if strings.HasPrefix(all[i].ID, key+"-") {
			if match != nil {
				return nil, store.ErrNotFound
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, store.ErrNotFound
	}
	return match, nil
}
