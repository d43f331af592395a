package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the prefixed tables and indexes if they do not exist.
// Statements are idempotent so the server can run it on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				title TEXT NOT NULL,
				content TEXT,
				icon TEXT,
				cover_image TEXT,
				parent_document UUID,
				user_id TEXT NOT NULL,
				is_archived BOOLEAN NOT NULL DEFAULT FALSE,
				is_published BOOLEAN NOT NULL DEFAULT FALSE,
				creation_seq BIGSERIAL NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Documents),
		// parent_document has no foreign key: remove leaves children
		// pointing at a missing parent
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_by_user_parent ON %s (user_id, parent_document)`,
			tables.Documents, tables.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_by_user ON %s (user_id, is_archived, creation_seq DESC)`,
			tables.Documents, tables.Documents),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				root_id UUID NOT NULL,
				user_id TEXT NOT NULL,
				archived BOOLEAN NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				attempts INT NOT NULL DEFAULT 0,
				last_error TEXT,
				claimed_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
			)`, tables.CascadeJobs),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_pending ON %s (status, created_at)`,
			tables.CascadeJobs, tables.CascadeJobs),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_by_user ON %s (user_id, status, created_at)`,
			tables.CascadeJobs, tables.CascadeJobs),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every prefixed table. Used by the seeder's -drop-tables flag.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}
