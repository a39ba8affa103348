package ngo

import (
	"context"
	"errors"
	"testing"

	"github.com/Ridhim15/Danam-Application/internal/memstore"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/store"
)

func seeded(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory(memstore.New())
	if err := d.Seed(context.Background()); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSeedIsIdempotent(t *testing.T) {
	d := seeded(t)
	if err := d.Seed(context.Background()); err != nil {
		t.Fatal(err)
	}
	list, err := d.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 5 {
		t.Fatalf("got %d NGOs, want 5", len(list))
	}
}

func TestResolve(t *testing.T) {
	d := seeded(t)
	ctx := context.Background()
	kalpvriksh := "kalpvriksh-ek-chota-prayas-ngo"

	for _, ref := range []string{kalpvriksh, "Kalpvriksh - Ek Chota Prayas NGO", "kalpvriksh - ek chota prayas ngo", "Kalpvriksh"} {
		n, err := d.Resolve(ctx, ref)
		if err != nil {
			t.Errorf("Resolve(%q): %v", ref, err)
			continue
		}
		if n.ID != kalpvriksh {
			t.Errorf("Resolve(%q) = %s", ref, n.ID)
		}
	}

	n, err := d.Resolve(ctx, "Scope for Change")
	if err != nil || n.Email != "scopeforchange@ngo.org" {
		t.Fatalf("Resolve(Scope for Change) = %+v, %v", n, err)
	}

	for _, ref := range []string{"", "Unknown NGO", "  "} {
		if _, err := d.Resolve(ctx, ref); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Resolve(%q) err = %v, want not found", ref, err)
		}
	}
}

func TestResolveAmbiguousPrefix(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	_ = s.UpsertNGO(ctx, &models.NGO{ID: ID("Hope Trust North"), Name: "Hope Trust North"})
	_ = s.UpsertNGO(ctx, &models.NGO{ID: ID("Hope Trust South"), Name: "Hope Trust South"})
	if _, err := NewDirectory(s).Resolve(ctx, "Hope Trust"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ambiguous prefix err = %v", err)
	}
}
