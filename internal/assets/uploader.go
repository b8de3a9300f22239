// Package assets places uploaded photos in per-entity folders of a content
// store and keeps each folder under a maximum number of assets.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/metrics"
	"github.com/ryanbastic/go-gardenledger/internal/photo"
)

// Marker is the placeholder file that materialises an empty folder.
const Marker = ".gitkeep"

// DefaultMaxCount is the retention cap applied when none is configured.
const DefaultMaxCount = 20

// ErrInvalidKey is returned for empty keys or keys that would escape the folder.
var ErrInvalidKey = errors.New("invalid asset key")

// Order decides which assets count as oldest during retention.
type Order string

const (
	// OrderLexical treats the lexically smallest names as oldest. Plain style
	// suffixes are not padded, so x_10 sorts before x_2 and is pruned first
	// once a bucket passes nine uploads; use StylePadded or OrderModified where
	// that matters.
	OrderLexical Order = "lexical"
	// OrderModified uses store timestamps and falls back to lexical order when
	// any entry lacks one.
	OrderModified Order = "modified"
)

// Folder describes where one kind of asset lives.
type Folder struct {
	Root  string `json:"root"`
	Style Style  `json:"style"`
	Ext   string `json:"ext"`
}

// Config tunes an Uploader.
type Config struct {
	MaxCount   int
	Order      Order
	Normalizer *photo.Normalizer
}

// Result describes a stored asset.
type Result struct {
	Name    string
	Path    string
	Locator string
	Version string
	Pruned  []string
	// RetentionErr is set when pruning after the upload failed for some assets.
	// The upload itself succeeded.
	RetentionErr error
}

// Uploader writes assets into one Folder.
type Uploader struct {
	store      contentstore.ContentStore
	folder     Folder
	maxCount   int
	order      Order
	normalizer *photo.Normalizer
	logger     *slog.Logger
	now        func() time.Time
}

// NewUploader creates an Uploader for folder.
func NewUploader(store contentstore.ContentStore, folder Folder, cfg Config, logger *slog.Logger) *Uploader {
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultMaxCount
	}
	if cfg.Order == "" {
		cfg.Order = OrderLexical
	}
	if !folder.Style.Valid() {
		folder.Style = StylePadded
	}
	folder.Root = contentstore.CleanPath(folder.Root)
	return &Uploader{
		store:      store,
		folder:     folder,
		maxCount:   cfg.MaxCount,
		order:      cfg.Order,
		normalizer: cfg.Normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// MaxCount returns the configured retention cap.
func (u *Uploader) MaxCount() int { return u.maxCount }

func validKey(k string) bool {
	return k != "" && k != "." && k != ".." && !strings.ContainsAny(k, `/\`)
}

func (u *Uploader) folderPath(entityKey string) string {
	return path.Join(u.folder.Root, entityKey)
}

// NextName returns the next free asset name for the bucket among existing.
func (u *Uploader) NextName(entityKey, bucketKey string, existing []string) string {
	return NextName(u.folder.Style, BaseName(entityKey, bucketKey), u.folder.Ext, existing)
}

// List returns the assets of an entity in lexical order. A missing folder is empty.
func (u *Uploader) List(ctx context.Context, entityKey string) ([]contentstore.Entry, error) {
	if !validKey(entityKey) {
		return nil, fmt.Errorf("%w: entity %q", ErrInvalidKey, entityKey)
	}
	entries, err := u.store.List(ctx, u.folderPath(entityKey))
	if errors.Is(err, contentstore.ErrNotFound) {
		return []contentstore.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entityKey, err)
	}

	assets := make([]contentstore.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Dir || e.Name == Marker {
			continue
		}
		assets = append(assets, e)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

// Upload stores data under the next free name of the bucket, then prunes the
// folder down to the retention cap. A pruning failure is logged and reported
// in Result.RetentionErr without failing the upload.
func (u *Uploader) Upload(ctx context.Context, entityKey, bucketKey string, data []byte) (*Result, error) {
	if !validKey(entityKey) || !validKey(bucketKey) {
		return nil, fmt.Errorf("%w: entity %q bucket %q", ErrInvalidKey, entityKey, bucketKey)
	}

	data, err := u.normalizer.Normalize(data)
	if err != nil {
		return nil, err
	}

	existing, err := u.List(ctx, entityKey)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(existing))
	for i, e := range existing {
		names[i] = e.Name
	}

	name := u.NextName(entityKey, bucketKey, names)
	p := path.Join(u.folderPath(entityKey), name)
	res, err := u.store.Put(ctx, p, data, "")
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", p, err)
	}
	u.logger.Info("asset uploaded", "path", p, "bytes", len(data))

	out := &Result{
		Name:    name,
		Path:    p,
		Locator: u.locator(res.URL),
		Version: res.Version,
	}

	out.Pruned, out.RetentionErr = u.EnforceRetention(ctx, entityKey, u.maxCount)
	if out.RetentionErr != nil {
		u.logger.Warn("retention incomplete", "entity", entityKey, "error", out.RetentionErr)
	}
	return out, nil
}

// locator appends a timestamp query parameter so cached copies of an
// overwritten path are not served.
func (u *Uploader) locator(raw string) string {
	if raw == "" {
		return ""
	}
	ts := strconv.FormatInt(u.now().UnixMilli(), 10)
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw + "?t=" + ts
	}
	q := parsed.Query()
	q.Set("t", ts)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// EnforceRetention deletes the oldest assets of an entity until at most
// maxCount remain. Deletions run one at a time; a failed deletion is logged
// and the rest are still attempted. The returned error joins every failure.
func (u *Uploader) EnforceRetention(ctx context.Context, entityKey string, maxCount int) ([]string, error) {
	if maxCount < 1 {
		return nil, fmt.Errorf("retention cap must be positive, got %d", maxCount)
	}
	assets, err := u.List(ctx, entityKey)
	if err != nil {
		return nil, err
	}
	if len(assets) <= maxCount {
		return nil, nil
	}

	u.sortOldestFirst(assets)

	var (
		pruned []string
		errs   []error
	)
	for _, e := range assets[:len(assets)-maxCount] {
		if err := u.store.Delete(ctx, e.Path, e.Version); err != nil {
			u.logger.Warn("failed to prune asset", "entity", entityKey, "asset", e.Name, "error", err)
			metrics.AssetPruned(false)
			errs = append(errs, fmt.Errorf("delete %s: %w", e.Path, err))
			continue
		}
		metrics.AssetPruned(true)
		pruned = append(pruned, e.Name)
	}
	if len(pruned) > 0 {
		u.logger.Info("assets pruned", "entity", entityKey, "count", len(pruned))
	}
	return pruned, errors.Join(errs...)
}

func (u *Uploader) sortOldestFirst(assets []contentstore.Entry) {
	if u.order == OrderModified {
		timed := true
		for _, e := range assets {
			if e.ModifiedAt.IsZero() {
				timed = false
				break
			}
		}
		if timed {
			sort.SliceStable(assets, func(i, j int) bool {
				if !assets[i].ModifiedAt.Equal(assets[j].ModifiedAt) {
					return assets[i].ModifiedAt.Before(assets[j].ModifiedAt)
				}
				return assets[i].Name < assets[j].Name
			})
			return
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
}

// EnsureFolder writes the placeholder marker when the entity has no folder yet.
func (u *Uploader) EnsureFolder(ctx context.Context, entityKey string) error {
	if !validKey(entityKey) {
		return fmt.Errorf("%w: entity %q", ErrInvalidKey, entityKey)
	}
	dir := u.folderPath(entityKey)
	_, err := u.store.List(ctx, dir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, contentstore.ErrNotFound) {
		return fmt.Errorf("ensure folder %s: %w", entityKey, err)
	}

	_, err = u.store.Put(ctx, path.Join(dir, Marker), nil, "")
	if err != nil && !errors.Is(err, contentstore.ErrConflict) {
		return fmt.Errorf("ensure folder %s: %w", entityKey, err)
	}
	return nil
}
