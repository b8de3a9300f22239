package contentstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentTable holds every object of the PostgreSQL backend.
const ContentTable = "content_objects"

// RunMigrations creates the content table and its indexes.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			path       TEXT PRIMARY KEY,
			content    BYTEA NOT NULL,
			version    TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_path_prefix
			ON %s (path text_pattern_ops);
	`, ContentTable, ContentTable, ContentTable)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate %s: %w", ContentTable, err)
	}
	return nil
}
