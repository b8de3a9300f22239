// Package recordstore keeps one table as a delimited text file at a fixed
// path of a content store and writes it back with optimistic concurrency.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/record"
)

// Snapshot is one loaded revision of a table.
type Snapshot struct {
	Records record.RecordSet
	// Version is the token to pass to SaveIfMatch. Empty when the file does not exist.
	Version string
	Found   bool
	Skipped []*record.MalformedRecordError
}

// SaveResult is returned by a successful write.
type SaveResult struct {
	Version string
	URL     string
}

// Store binds a schema to one path of a content store.
type Store struct {
	content contentstore.ContentStore
	path    string
	schema  record.Schema
	logger  *slog.Logger
}

// New creates a Store for the table at p.
func New(content contentstore.ContentStore, p string, schema record.Schema, logger *slog.Logger) *Store {
	return &Store{
		content: content,
		path:    contentstore.CleanPath(p),
		schema:  schema,
		logger:  logger,
	}
}

func (s *Store) Path() string          { return s.path }
func (s *Store) Schema() record.Schema { return s.schema }

// Load fetches and decodes the table. A missing file is an empty table, not an error.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	obj, err := s.content.Get(ctx, s.path)
	if errors.Is(err, contentstore.ErrNotFound) {
		return &Snapshot{Records: record.RecordSet{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	decoded := record.Decode(s.schema, obj.Content)
	if decoded.Header != nil && !s.schema.HeaderMatches(decoded.Header) {
		s.logger.Warn("table header differs from schema",
			"path", s.path,
			"header", decoded.Header,
			"columns", s.schema.Columns,
		)
	}
	for _, m := range decoded.Skipped {
		s.logger.Warn("skipping malformed record",
			"path", s.path,
			"line", m.Line,
			"columns", m.Columns,
			"want", m.Want,
		)
	}

	return &Snapshot{
		Records: decoded.Records,
		Version: obj.Version,
		Found:   true,
		Skipped: decoded.Skipped,
	}, nil
}

// Encode renders set in the table's schema.
func (s *Store) Encode(set record.RecordSet) []byte {
	return record.Encode(s.schema, set)
}

// Save re-reads the current version token and writes set over it. A writer
// that lands between the read and the write makes Save fail with
// contentstore.ErrConflict; nothing is retried or merged.
func (s *Store) Save(ctx context.Context, set record.RecordSet) (*SaveResult, error) {
	var version string
	obj, err := s.content.Get(ctx, s.path)
	switch {
	case err == nil:
		version = obj.Version
	case errors.Is(err, contentstore.ErrNotFound):
	default:
		return nil, fmt.Errorf("save %s: read version: %w", s.path, err)
	}
	return s.put(ctx, set, version)
}

// SaveIfMatch writes set only if version is still the current token. An empty
// version creates the file.
func (s *Store) SaveIfMatch(ctx context.Context, set record.RecordSet, version string) (*SaveResult, error) {
	return s.put(ctx, set, version)
}

func (s *Store) put(ctx context.Context, set record.RecordSet, version string) (*SaveResult, error) {
	res, err := s.content.Put(ctx, s.path, s.Encode(set), version)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", s.path, err)
	}
	s.logger.Info("table saved", "path", s.path, "records", len(set), "version", res.Version)
	return &SaveResult{Version: res.Version, URL: res.URL}, nil
}
