package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/jackc/pgx/v5"
)

const donationColumns = `d.id, COALESCE(d.meds, 0), COALESCE(d.books, 0), COALESCE(d.clothes, 0), COALESCE(d.food, 0),
	COALESCE(d.ngo, ''), COALESCE(d.ngo_id, ''), d.status, d.uid, d.created_at`

func scanDonation(row pgx.Row) (*models.DonationRequest, error) {
	var d models.DonationRequest
	var status string
	if err := row.Scan(&d.ID, &d.Meds, &d.Books, &d.Clothes, &d.Food, &d.NGO, &d.NGOID, &status, &d.UID, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Status = models.DonationStatus(status)
	return &d, nil
}

func (db *Database) queryDonations(ctx context.Context, query string, args ...any) ([]models.DonationRequest, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	var out []models.DonationRequest
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donations: %w", err)
	}
	return out, nil
}

// InsertDonation stores a new donation and fills in its id and created_at
func (db *Database) InsertDonation(ctx context.Context, d *models.DonationRequest) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO public.donation (meds, books, clothes, food, ngo, ngo_id, status, uid)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING id, created_at
	`, d.Meds, d.Books, d.Clothes, d.Food, d.NGO, d.NGOID, string(d.Status), d.UID).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	return nil
}

// GetDonation returns one donation by id
func (db *Database) GetDonation(ctx context.Context, id int64) (*models.DonationRequest, error) {
	d, err := scanDonation(db.Pool.QueryRow(ctx, `SELECT `+donationColumns+` FROM public.donation d WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	return d, nil
}

// ListDonationsByStatus returns every donation in a status, oldest first
func (db *Database) ListDonationsByStatus(ctx context.Context, status models.DonationStatus) ([]models.DonationRequest, error) {
	return db.queryDonations(ctx, `
		SELECT `+donationColumns+` FROM public.donation d
		WHERE d.status = $1
		ORDER BY d.created_at, d.id
	`, string(status))
}

// ListDonationsByOwner returns a donor's donations, newest first
func (db *Database) ListDonationsByOwner(ctx context.Context, uid string) ([]models.DonationRequest, error) {
	return db.queryDonations(ctx, `
		SELECT `+donationColumns+` FROM public.donation d
		WHERE d.uid = $1
		ORDER BY d.created_at DESC, d.id DESC
	`, uid)
}

// ListCompletedBy returns completed donations whose completion was written by changedBy
func (db *Database) ListCompletedBy(ctx context.Context, changedBy string) ([]models.DonationRequest, error) {
	return db.queryDonations(ctx, `
		SELECT `+donationColumns+` FROM public.donation d
		WHERE d.status = 'completed'
		AND EXISTS (
			SELECT 1 FROM public.donation_status_history h
			WHERE h.donation_id = d.id AND h.new_status = 'completed' AND h.changed_by = $1
		)
		ORDER BY d.created_at, d.id
	`, changedBy)
}

// ListItemCountsForNGO returns the counts of donations targeting the NGO.
// Legacy rows without ngo_id match on the display name.
func (db *Database) ListItemCountsForNGO(ctx context.Context, ngo models.NGO) ([]models.ItemCounts, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT COALESCE(meds, 0), COALESCE(books, 0), COALESCE(clothes, 0), COALESCE(food, 0)
		FROM public.donation
		WHERE ngo_id = $1 OR (ngo_id IS NULL AND ngo = $2)
	`, ngo.ID, ngo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to query donation counts: %w", err)
	}
	defer rows.Close()

	var out []models.ItemCounts
	for rows.Next() {
		var c models.ItemCounts
		if err := rows.Scan(&c.Meds, &c.Books, &c.Clothes, &c.Food); err != nil {
			return nil, fmt.Errorf("failed to scan donation counts: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donation counts: %w", err)
	}
	return out, nil
}

// TransitionStatus moves a donation to t.To when its current status is one of t.From.
// The row is locked for the check, and the history row is written in the same transaction.
func (db *Database) TransitionStatus(ctx context.Context, t models.Transition) (*models.DonationRequest, bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM public.donation WHERE id = $1 FOR UPDATE`, t.DonationID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, store.ErrNotFound
		}
		return nil, false, fmt.Errorf("failed to read donation status: %w", err)
	}
	old := models.DonationStatus(current)
	if !t.Allows(old) {
		return nil, false, &store.ConflictError{DonationID: t.DonationID, Current: old, Target: t.To}
	}

	if old == t.To {
		d, err := scanDonation(tx.QueryRow(ctx, `SELECT `+donationColumns+` FROM public.donation d WHERE d.id = $1`, t.DonationID))
		if err != nil {
			return nil, false, fmt.Errorf("failed to read donation: %w", err)
		}
		return d, false, nil
	}

	d, err := scanDonation(tx.QueryRow(ctx, `
		UPDATE public.donation d SET status = $1
		WHERE d.id = $2
		RETURNING `+donationColumns, string(t.To), t.DonationID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to update donation status: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO public.donation_status_history (donation_id, old_status, new_status, changed_by)
		VALUES ($1, $2, $3, $4)
	`, t.DonationID, current, string(t.To), t.ChangedBy); err != nil {
		return nil, false, fmt.Errorf("failed to record status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return d, true, nil
}

// StatusHistory returns the recorded status writes of a donation, oldest first
func (db *Database) StatusHistory(ctx context.Context, donationID int64) ([]models.DonationStatusChange, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, donation_id, old_status, new_status, changed_by, created_at
		FROM public.donation_status_history
		WHERE donation_id = $1
		ORDER BY created_at, id
	`, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var out []models.DonationStatusChange
	for rows.Next() {
		var c models.DonationStatusChange
		var oldStatus, newStatus string
		if err := rows.Scan(&c.ID, &c.DonationID, &oldStatus, &newStatus, &c.ChangedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		c.OldStatus = models.DonationStatus(oldStatus)
		c.NewStatus = models.DonationStatus(newStatus)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status history: %w", err)
	}
	return out, nil
}
