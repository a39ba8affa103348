package db

import (
	"context"
	"fmt"
	"log"
)

// NotifyChannel is the channel the donation trigger notifies on
const NotifyChannel = "donation_changes"

// InitSchema creates the tables when missing and gently migrates older layouts.
// Tables created by the mobile app keep their columns; only missing pieces are added.
func (db *Database) InitSchema(ctx context.Context) error {
	// 1) Base tables
	tables := []struct {
		name string
		ddl  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS public.users (
				id BIGSERIAL PRIMARY KEY,
				auth_user_id TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL DEFAULT '',
				phone TEXT,
				address TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);`},
		{"volunteer", `
			CREATE TABLE IF NOT EXISTS public.volunteer (
				uid TEXT PRIMARY KEY,
				name TEXT,
				address TEXT,
				phone TEXT
			);`},
		{"ngos", `
			CREATE TABLE IF NOT EXISTS public.ngos (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT ''
			);`},
		{"donation", `
			CREATE TABLE IF NOT EXISTS public.donation (
				id BIGSERIAL PRIMARY KEY,
				meds INTEGER NOT NULL DEFAULT 0,
				books INTEGER NOT NULL DEFAULT 0,
				clothes INTEGER NOT NULL DEFAULT 0,
				food INTEGER NOT NULL DEFAULT 0,
				ngo TEXT,
				status TEXT NOT NULL DEFAULT 'pending',
				uid TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);`},
		{"donation_status_history", `
			CREATE TABLE IF NOT EXISTS public.donation_status_history (
				id BIGSERIAL PRIMARY KEY,
				donation_id BIGINT NOT NULL,
				old_status TEXT NOT NULL,
				new_status TEXT NOT NULL,
				changed_by TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);`},
	}
	for _, t := range tables {
		if _, err := db.Pool.Exec(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	// 2) Columns missing from app-created tables
	columns := []struct {
		table, column, ddl string
	}{
		{"users", "created_at", `ALTER TABLE public.users ADD COLUMN created_at TIMESTAMPTZ NOT NULL DEFAULT now();`},
		{"users", "updated_at", `ALTER TABLE public.users ADD COLUMN updated_at TIMESTAMPTZ NOT NULL DEFAULT now();`},
		{"donation", "ngo_id", `ALTER TABLE public.donation ADD COLUMN ngo_id TEXT NULL;`},
	}
	for _, c := range columns {
		var exists bool
		if err := db.Pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.columns
				WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
			);
		`, c.table, c.column).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check %s.%s: %w", c.table, c.column, err)
		}
		if !exists {
			if _, err := db.Pool.Exec(ctx, c.ddl); err != nil {
				return fmt.Errorf("failed to add %s.%s: %w", c.table, c.column, err)
			}
			log.Printf("[DANAM-DB] Added %s.%s column", c.table, c.column)
		}
	}

	// 3) Indexes; the users index backs ON CONFLICT (auth_user_id)
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_auth_user_id ON public.users(auth_user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_donation_status ON public.donation(status, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_donation_uid ON public.donation(uid);`,
		`CREATE INDEX IF NOT EXISTS idx_donation_ngo_id ON public.donation(ngo_id);`,
		`CREATE INDEX IF NOT EXISTS idx_donation_history_donation ON public.donation_status_history(donation_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_donation_history_changed_by ON public.donation_status_history(changed_by, new_status);`,
	}
	for _, ddl := range indexes {
		if _, err := db.Pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// 4) Change feed trigger
	if _, err := db.Pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION public.notify_donation_change() RETURNS trigger AS $$
		DECLARE
			rec RECORD;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				rec := OLD;
			ELSE
				rec := NEW;
			END IF;
			PERFORM pg_notify('`+NotifyChannel+`', json_build_object(
				'op', TG_OP,
				'table', TG_TABLE_NAME,
				'id', rec.id,
				'row', row_to_json(rec)
			)::text);
			RETURN rec;
		END;
		$$ LANGUAGE plpgsql;
	`); err != nil {
		return fmt.Errorf("failed to create notify_donation_change: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, `
		DO $$ BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_trigger WHERE tgname = 'donation_change_notify'
			) THEN
				CREATE TRIGGER donation_change_notify
				AFTER INSERT OR UPDATE OR DELETE ON public.donation
				FOR EACH ROW EXECUTE FUNCTION public.notify_donation_change();
			END IF;
		END $$;
	`); err != nil {
		return fmt.Errorf("failed to create donation_change_notify trigger: %w", err)
	}

	log.Println("[DANAM-DB] Schema verified successfully")
	return nil
}
