// Package garden exposes the plant inventory and garden progress gallery on
// top of record stores and asset uploaders.
package garden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/assets"
	"github.com/ryanbastic/go-gardenledger/internal/config"
	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/record"
	"github.com/ryanbastic/go-gardenledger/internal/recordstore"
	"github.com/ryanbastic/go-gardenledger/internal/table"
)

var (
	// ErrUnknownTable is returned for table names missing from the layout.
	ErrUnknownTable = table.ErrUnknownTable

	// ErrUnknownFolder is returned for asset profiles missing from the layout.
	ErrUnknownFolder = errors.New("unknown asset folder")

	// ErrInvalidRecord is returned for records the table cannot store.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrPlantNotFound is returned when no plant carries the given common name.
	ErrPlantNotFound = errors.New("plant not found")

	// ErrPlantExists is returned when adding a plant whose common name is taken.
	ErrPlantExists = errors.New("plant already exists")
)

// Options configures the asset uploaders built from a layout.
type Options struct {
	Assets assets.Config
}

// Service loads and saves tables and stores photos.
type Service struct {
	tables  *table.Registry
	folders map[string]*assets.Uploader
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds a record store per table and an uploader per folder of layout.
func NewService(store contentstore.ContentStore, layout *config.Layout, opts Options, logger *slog.Logger) (*Service, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		tables:  table.NewRegistry(),
		folders: make(map[string]*assets.Uploader, len(layout.Folders)),
		logger:  logger,
		now:     time.Now,
	}
	for _, t := range layout.Tables {
		schema := record.Schema{Columns: t.Columns, MinColumns: t.MinColumns}
		s.tables.Register(t.Name, recordstore.New(store, t.Path, schema, logger.With("table", t.Name)))
	}
	for _, f := range layout.Folders {
		folder := assets.Folder{Root: f.Root, Style: assets.Style(f.Style), Ext: f.Ext}
		s.folders[f.Name] = assets.NewUploader(store, folder, opts.Assets, logger.With("folder", f.Name))
	}
	return s, nil
}

// Tables returns the table names in sorted order.
func (s *Service) Tables() []string {
	return s.tables.Names()
}

func (s *Service) LoadTable(ctx context.Context, name string) (*recordstore.Snapshot, error) {
	st, err := s.tables.StoreFor(name)
	if err != nil {
		return nil, err
	}
	return st.Load(ctx)
}

// SaveTable writes set over whatever revision is current.
func (s *Service) SaveTable(ctx context.Context, name string, set record.RecordSet) (*recordstore.SaveResult, error) {
	st, err := s.tables.StoreFor(name)
	if err != nil {
		return nil, err
	}
	if err := validateSet(st.Schema(), set); err != nil {
		return nil, err
	}
	return st.Save(ctx, set)
}

// SaveTableIfMatch writes set only if version is still current.
func (s *Service) SaveTableIfMatch(ctx context.Context, name string, set record.RecordSet, version string) (*recordstore.SaveResult, error) {
	st, err := s.tables.StoreFor(name)
	if err != nil {
		return nil, err
	}
	if err := validateSet(st.Schema(), set); err != nil {
		return nil, err
	}
	return st.SaveIfMatch(ctx, set, version)
}

func validateSet(schema record.Schema, set record.RecordSet) error {
	for i, r := range set {
		if unknown := schema.Unknown(r); len(unknown) > 0 {
			return fmt.Errorf("%w: record %d has unknown columns %v", ErrInvalidRecord, i, unknown)
		}
		for col, v := range r {
			if err := validateValue(col, v); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
	}
	return nil
}

func (s *Service) folder(name string) (*assets.Uploader, error) {
	u, ok := s.folders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFolder, name)
	}
	return u, nil
}

func slugKey(kind, name string) (string, error) {
	key := Slug(name)
	if key == "" {
		return "", fmt.Errorf("%w: %s %q: %v", ErrInvalidRecord, kind, name, errEmptySlug)
	}
	return key, nil
}

// UploadAsset stores a photo for an entity in the named folder.
func (s *Service) UploadAsset(ctx context.Context, folderName, entity, bucket string, data []byte) (*assets.Result, error) {
	u, err := s.folder(folderName)
	if err != nil {
		return nil, err
	}
	entityKey, err := slugKey("entity", entity)
	if err != nil {
		return nil, err
	}
	bucketKey, err := slugKey("bucket", bucket)
	if err != nil {
		return nil, err
	}
	return u.Upload(ctx, entityKey, bucketKey, data)
}

// ListAssets returns the asset entries of an entity.
func (s *Service) ListAssets(ctx context.Context, folderName, entity string) ([]contentstore.Entry, error) {
	u, err := s.folder(folderName)
	if err != nil {
		return nil, err
	}
	entityKey, err := slugKey("entity", entity)
	if err != nil {
		return nil, err
	}
	return u.List(ctx, entityKey)
}

// PlantEntry is a new plant. LastWatered is an ISO date or empty.
type PlantEntry struct {
	CommonName     string
	ScientificName string
	Picture        string
	Zone           string
	Sunlight       string
	Watering       string
	Height         string
	LastWatered    string
	PestCheck      string
	Wilting        string
	HealthStatus   string
	PhotoURL       string
}

// Record fills the placeholders of empty fields.
func (e PlantEntry) Record() (record.Record, error) {
	if strings.TrimSpace(e.CommonName) == "" || strings.TrimSpace(e.ScientificName) == "" {
		return nil, fmt.Errorf("%w: common name and scientific name are required", ErrInvalidRecord)
	}
	watered, err := FormatDate(e.LastWatered)
	if err != nil {
		return nil, err
	}
	r := record.Record{
		ColCommonName:     strings.TrimSpace(e.CommonName),
		ColScientificName: strings.TrimSpace(e.ScientificName),
		ColPicture:        valueOr(e.Picture, DefaultPicture),
		ColZone:           valueOr(e.Zone, NotAvailable),
		ColSunlight:       valueOr(e.Sunlight, NotAvailable),
		ColWatering:       valueOr(e.Watering, NotAvailable),
		ColHeight:         valueOr(e.Height, NotAvailable),
		ColLastWatered:    watered,
		ColPestCheck:      valueOr(e.PestCheck, DefaultPestCheck),
		ColWilting:        valueOr(e.Wilting, DefaultWilting),
		ColHealthStatus:   valueOr(e.HealthStatus, DefaultHealthStatus),
		ColPhotoURL:       valueOr(e.PhotoURL, DefaultPhotoURL),
	}
	for col, v := range r {
		if err := validateValue(col, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func findPlant(set record.RecordSet, commonName string) int {
	for i, r := range set {
		if strings.EqualFold(r[ColCommonName], strings.TrimSpace(commonName)) {
			return i
		}
	}
	return -1
}

// AddPlant appends a plant to the plants table and creates its photo folder.
// A concurrent edit of the table surfaces as contentstore.ErrConflict.
func (s *Service) AddPlant(ctx context.Context, entry PlantEntry) (record.Record, *recordstore.SaveResult, error) {
	r, err := entry.Record()
	if err != nil {
		return nil, nil, err
	}
	st, err := s.tables.StoreFor(TablePlants)
	if err != nil {
		return nil, nil, err
	}

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if findPlant(snap.Records, r[ColCommonName]) >= 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrPlantExists, r[ColCommonName])
	}

	res, err := st.SaveIfMatch(ctx, append(snap.Records, r), snap.Version)
	if err != nil {
		return nil, nil, err
	}

	if u, ok := s.folders[FolderPlants]; ok {
		if key := Slug(r[ColCommonName]); key != "" {
			if err := u.EnsureFolder(ctx, key); err != nil {
				s.logger.Warn("failed to create plant photo folder", "plant", r[ColCommonName], "error", err)
			}
		}
	}
	s.logger.Info("plant added", "plant", r[ColCommonName])
	return r, res, nil
}

// StatusUpdate carries the fields of a plant status check. Empty fields keep
// their current value; Photo, when set, is uploaded and becomes the photo URL.
type StatusUpdate struct {
	LastWatered  string
	PestCheck    string
	Wilting      string
	HealthStatus string
	Photo        []byte
}

// UpdatePlantStatus records a status check for the plant named commonName.
func (s *Service) UpdatePlantStatus(ctx context.Context, commonName string, upd StatusUpdate) (record.Record, *recordstore.SaveResult, error) {
	st, err := s.tables.StoreFor(TablePlants)
	if err != nil {
		return nil, nil, err
	}

	changes := map[string]string{
		ColPestCheck:    strings.TrimSpace(upd.PestCheck),
		ColWilting:      strings.TrimSpace(upd.Wilting),
		ColHealthStatus: strings.TrimSpace(upd.HealthStatus),
	}
	if upd.LastWatered != "" {
		watered, err := FormatDate(upd.LastWatered)
		if err != nil {
			return nil, nil, err
		}
		changes[ColLastWatered] = watered
	}
	for col, v := range changes {
		if err := validateValue(col, v); err != nil {
			return nil, nil, err
		}
	}

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	i := findPlant(snap.Records, commonName)
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrPlantNotFound, commonName)
	}

	updated := snap.Records[i].Clone()
	for col, v := range changes {
		if v != "" {
			updated[col] = v
		}
	}

	if len(upd.Photo) > 0 {
		bucket := s.now().Format(isoDate)
		res, err := s.UploadAsset(ctx, FolderPlants, updated[ColCommonName], bucket, upd.Photo)
		if err != nil {
			return nil, nil, err
		}
		updated[ColPhotoURL] = res.Locator
	}

	set := make(record.RecordSet, len(snap.Records))
	copy(set, snap.Records)
	set[i] = updated

	saved, err := st.SaveIfMatch(ctx, set, snap.Version)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("plant status updated", "plant", updated[ColCommonName])
	return updated, saved, nil
}
