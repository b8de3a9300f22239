package contentstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements ContentStore on a single PostgreSQL table.
type PostgresStore struct {
	pool         *pgxpool.Pool
	table        string
	baseURL      string
	queryTimeout time.Duration
}

// NewPostgresStore creates a ContentStore backed by the content table.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore(pool *pgxpool.Pool, baseURL string, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:         pool,
		table:        ContentTable,
		baseURL:      baseURL,
		queryTimeout: queryTimeout,
	}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresStore) Get(ctx context.Context, p string) (*Object, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p = CleanPath(p)

	query := fmt.Sprintf(`SELECT content, version FROM %s WHERE path = $1`, s.table)

	obj := Object{Path: p, URL: ContentURL(s.baseURL, p)}
	err := s.pool.QueryRow(ctx, query, p).Scan(&obj.Content, &obj.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &TransportError{Op: "get", Path: p, Err: err}
	}
	return &obj, nil
}

func (s *PostgresStore) Put(ctx context.Context, p string, content []byte, expectedVersion string) (*PutResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p = CleanPath(p)
	if content == nil {
		// pgx sends a nil slice as NULL.
		content = []byte{}
	}
	version := BlobVersion(content)

	if expectedVersion == "" {
		query := fmt.Sprintf(`
			INSERT INTO %s (path, content, version)
			VALUES ($1, $2, $3)
			ON CONFLICT (path) DO NOTHING
		`, s.table)
		tag, err := s.pool.Exec(ctx, query, p, content, version)
		if err != nil {
			return nil, &TransportError{Op: "put", Path: p, Err: err}
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("put %s: path exists: %w", p, ErrConflict)
		}
		return &PutResult{Version: version, URL: ContentURL(s.baseURL, p)}, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET content = $2, version = $3, updated_at = now()
		WHERE path = $1 AND version = $4
	`, s.table)
	tag, err := s.pool.Exec(ctx, query, p, content, version, expectedVersion)
	if err != nil {
		return nil, &TransportError{Op: "put", Path: p, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("put %s: stale version %s: %w", p, expectedVersion, ErrConflict)
	}
	return &PutResult{Version: version, URL: ContentURL(s.baseURL, p)}, nil
}

func (s *PostgresStore) Delete(ctx context.Context, p string, version string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p = CleanPath(p)

	query := fmt.Sprintf(`DELETE FROM %s WHERE path = $1 AND ($2 = '' OR version = $2)`, s.table)
	tag, err := s.pool.Exec(ctx, query, p, version)
	if err != nil {
		return &TransportError{Op: "delete", Path: p, Err: err}
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE path = $1)`, s.table), p).Scan(&exists)
	if err != nil {
		return &TransportError{Op: "delete", Path: p, Err: err}
	}
	if exists {
		return fmt.Errorf("delete %s: stale version %s: %w", p, version, ErrConflict)
	}
	return ErrNotFound
}

func (s *PostgresStore) List(ctx context.Context, folder string) ([]Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	folder = CleanPath(folder)
	prefix := folder + "/"
	if folder == "" {
		prefix = ""
	}

	query := fmt.Sprintf(`
		SELECT path, version, updated_at
		FROM %s
		WHERE starts_with(path, $1)
		ORDER BY path
	`, s.table)

	rows, err := s.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, &TransportError{Op: "list", Path: folder, Err: err}
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var entries []Entry
	for rows.Next() {
		var (
			p, version string
			updatedAt  time.Time
		)
		if err := rows.Scan(&p, &version, &updatedAt); err != nil {
			return nil, &TransportError{Op: "list", Path: folder, Err: err}
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := rest[:i]
			if !seen[name] {
				seen[name] = true
				entries = append(entries, Entry{Name: name, Path: prefix + name, Dir: true})
			}
			continue
		}
		entries = append(entries, Entry{Name: rest, Path: p, Version: version, ModifiedAt: updatedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, &TransportError{Op: "list", Path: folder, Err: err}
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
