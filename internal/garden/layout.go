package garden

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/config"
)

// Table and folder names of the built-in layout.
const (
	TablePlants    = "plants"
	TableProgress  = "progress"
	FolderPlants   = "plants"
	FolderProgress = "progress"
)

// Plant columns.
const (
	ColCommonName     = "commonName"
	ColScientificName = "scientificName"
	ColPicture        = "picture"
	ColZone           = "zone"
	ColSunlight       = "sunlight"
	ColWatering       = "watering"
	ColHeight         = "height"
	ColLastWatered    = "lastWatered"
	ColPestCheck      = "pestCheck"
	ColWilting        = "wilting"
	ColHealthStatus   = "healthStatus"
	ColPhotoURL       = "photoUrl"
)

// Placeholder values written when a field is left empty.
const (
	DefaultPicture      = "Pic here"
	NotAvailable        = "N/A"
	DefaultPestCheck    = "None"
	DefaultWilting      = "None"
	DefaultHealthStatus = "Healthy"
	DefaultPhotoURL     = "Latest Pic"
)

var plantColumns = []string{
	ColCommonName, ColScientificName, ColPicture, ColZone, ColSunlight, ColWatering, ColHeight,
	ColLastWatered, ColPestCheck, ColWilting, ColHealthStatus, ColPhotoURL,
}

// DefaultLayout is the plant inventory and garden progress gallery. Plant rows
// written before the status columns existed carry only the first seven fields;
// they load with empty status values.
func DefaultLayout() *config.Layout {
	return &config.Layout{
		Tables: []config.TableDefinition{
			{
				Name:       TablePlants,
				Path:       "data/plants.csv",
				Columns:    plantColumns,
				MinColumns: 7,
			},
			{
				Name:    TableProgress,
				Path:    "data/garden_progress.csv",
				Columns: []string{"month", "date", "location", "photoUrl", "notes"},
			},
		},
		Folders: []config.FolderDefinition{
			{Name: FolderPlants, Root: "photos/plants", Style: "plain", Ext: ".jpg"},
			{Name: FolderProgress, Root: "photos/progress", Style: "padded", Ext: ".jpg"},
		},
	}
}

const (
	isoDate     = "2006-01-02"
	displayDate = "January 2, 2006"
)

// FormatDate renders an ISO date as "February 9, 2026". Empty input yields N/A.
func FormatDate(iso string) (string, error) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return NotAvailable, nil
	}
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return "", fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidRecord, iso)
	}
	return t.Format(displayDate), nil
}

// Slug turns a display name into a folder key: lower case, spaces become
// underscores, and anything outside [a-z0-9_-] is dropped.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// validateValue rejects characters the table encoding cannot carry.
func validateValue(column, v string) error {
	if strings.ContainsAny(v, "\"\r\n") {
		return fmt.Errorf("%w: %s contains a quote or line break", ErrInvalidRecord, column)
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

var errEmptySlug = errors.New("name has no usable characters")
