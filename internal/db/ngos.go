package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/jackc/pgx/v5"
)

// ListNGOs returns the directory ordered by name
func (db *Database) ListNGOs(ctx context.Context) ([]models.NGO, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name, email FROM public.ngos ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ngos: %w", err)
	}
	defer rows.Close()

	var out []models.NGO
	for rows.Next() {
		var n models.NGO
		if err := rows.Scan(&n.ID, &n.Name, &n.Email); err != nil {
			return nil, fmt.Errorf("failed to scan ngo: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ngos: %w", err)
	}
	return out, nil
}

// GetNGO returns one directory entry by id
func (db *Database) GetNGO(ctx context.Context, id string) (*models.NGO, error) {
	var n models.NGO
	err := db.Pool.QueryRow(ctx, `SELECT id, name, email FROM public.ngos WHERE id = $1`, id).Scan(&n.ID, &n.Name, &n.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ngo: %w", err)
	}
	return &n, nil
}

// UpsertNGO inserts or renames a directory entry
func (db *Database) UpsertNGO(ctx context.Context, n *models.NGO) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO public.ngos (id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email
	`, n.ID, n.Name, n.Email)
	if err != nil {
		return fmt.Errorf("failed to upsert ngo: %w", err)
	}
	return nil
}
