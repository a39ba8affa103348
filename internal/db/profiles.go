package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/jackc/pgx/v5"
)

var _ store.Store = (*Database)(nil)

const profileColumns = `id, auth_user_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(role, ''),
	COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var p models.UserProfile
	var role string
	if err := row.Scan(&p.ID, &p.AuthUserID, &p.Name, &p.Email, &role, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	return &p, nil
}

// GetProfile returns the profile row for an auth identity
func (db *Database) GetProfile(ctx context.Context, authUserID string) (*models.UserProfile, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM public.users WHERE auth_user_id = $1`, authUserID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetProfiles returns the profiles of several identities keyed by auth_user_id; missing ones are absent
func (db *Database) GetProfiles(ctx context.Context, authUserIDs []string) (map[string]models.UserProfile, error) {
	out := make(map[string]models.UserProfile, len(authUserIDs))
	if len(authUserIDs) == 0 {
		return out, nil
	}
	rows, err := db.Pool.Query(ctx, `SELECT `+profileColumns+` FROM public.users WHERE auth_user_id = ANY($1)`, authUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out[p.AuthUserID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return out, nil
}

// UpsertProfile writes the profile keyed by auth_user_id and reports whether the row is new
func (db *Database) UpsertProfile(ctx context.Context, p *models.UserProfile) (bool, error) {
	var created bool
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO public.users (auth_user_id, name, email, role, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (auth_user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)
	`, p.AuthUserID, p.Name, p.Email, string(p.Role), p.Phone, p.Address).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return created, nil
}

// UpsertVolunteer mirrors a volunteer's contact details keyed by uid
func (db *Database) UpsertVolunteer(ctx context.Context, v *models.Volunteer) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO public.volunteer (uid, name, address, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone
	`, v.UID, v.Name, v.Address, v.Phone)
	if err != nil {
		return fmt.Errorf("failed to upsert volunteer: %w", err)
	}
	return nil
}
