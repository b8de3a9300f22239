package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TableDefinition describes one table file.
type TableDefinition struct {
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Columns    []string `json:"columns"`
	MinColumns int      `json:"min_columns,omitempty"`
}

// FolderDefinition describes one asset folder profile.
type FolderDefinition struct {
	Name  string `json:"name"`
	Root  string `json:"root"`
	Style string `json:"style"`
	Ext   string `json:"ext"`
}

// Layout lists the tables and asset folders served by the application.
type Layout struct {
	Tables  []TableDefinition  `json:"tables"`
	Folders []FolderDefinition `json:"folders"`
}

// LoadLayout reads a JSON layout file and validates it.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout config: %w", err)
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout config: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks names, paths, columns and folder styles.
func (l *Layout) Validate() error {
	if len(l.Tables) == 0 {
		return fmt.Errorf("layout config: no tables defined")
	}

	seen := make(map[string]bool, len(l.Tables))
	paths := make(map[string]bool, len(l.Tables))
	for i, t := range l.Tables {
		if t.Name == "" {
			return fmt.Errorf("layout config: table #%d has empty name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("layout config: duplicate table name %q", t.Name)
		}
		seen[t.Name] = true
		if t.Path == "" {
			return fmt.Errorf("layout config: table %q has empty path", t.Name)
		}
		if paths[t.Path] {
			return fmt.Errorf("layout config: table %q reuses path %q", t.Name, t.Path)
		}
		paths[t.Path] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("layout config: table %q has no columns", t.Name)
		}
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if c == "" {
				return fmt.Errorf("layout config: table %q has an empty column name", t.Name)
			}
			if cols[c] {
				return fmt.Errorf("layout config: table %q has duplicate column %q", t.Name, c)
			}
			cols[c] = true
		}
		if t.MinColumns < 0 || t.MinColumns > len(t.Columns) {
			return fmt.Errorf("layout config: table %q min_columns %d out of range", t.Name, t.MinColumns)
		}
	}

	folders := make(map[string]bool, len(l.Folders))
	for i, f := range l.Folders {
		if f.Name == "" {
			return fmt.Errorf("layout config: folder #%d has empty name", i)
		}
		if folders[f.Name] {
			return fmt.Errorf("layout config: duplicate folder name %q", f.Name)
		}
		folders[f.Name] = true
		if f.Root == "" {
			return fmt.Errorf("layout config: folder %q has empty root", f.Name)
		}
		switch f.Style {
		case "padded", "plain":
		default:
			return fmt.Errorf("layout config: folder %q has unknown style %q", f.Name, f.Style)
		}
	}
	return nil
}
