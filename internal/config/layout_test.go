package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempLayout(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp layout: %v", err)
	}
	return path
}

func TestLoadLayout_Valid(t *testing.T) {
	cfg := `{
		"tables": [
			{"name": "plants", "path": "data/plants.csv", "columns": ["commonName", "scientificName", "healthStatus"]},
			{"name": "progress", "path": "data/garden_progress.csv", "columns": ["month", "date", "location"], "min_columns": 2}
		],
		"folders": [
			{"name": "plants", "root": "photos/plants", "style": "plain", "ext": ".jpg"}
		]
	}`
	path := writeTempLayout(t, cfg)

	l, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	if len(l.Tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(l.Tables))
	}
	if l.Tables[1].MinColumns != 2 {
		t.Errorf("got min_columns %d, want 2", l.Tables[1].MinColumns)
	}
	if len(l.Folders) != 1 || l.Folders[0].Style != "plain" {
		t.Errorf("unexpected folders: %+v", l.Folders)
	}
}

func TestLoadLayout_FileNotFound(t *testing.T) {
	_, err := LoadLayout("/nonexistent/layout.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadLayout_InvalidJSON(t *testing.T) {
	path := writeTempLayout(t, `{invalid`)

	_, err := LoadLayout(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "parse layout config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadLayout_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		wantErr string
	}{
		{
			name:    "no tables",
			cfg:     `{"tables": []}`,
			wantErr: "no tables defined",
		},
		{
			name:    "empty table name",
			cfg:     `{"tables": [{"name": "", "path": "a.csv", "columns": ["a"]}]}`,
			wantErr: "empty name",
		},
		{
			name: "duplicate table",
			cfg: `{"tables": [
				{"name": "plants", "path": "a.csv", "columns": ["a"]},
				{"name": "plants", "path": "b.csv", "columns": ["a"]}
			]}`,
			wantErr: "duplicate table name",
		},
		{
			name: "shared path",
			cfg: `{"tables": [
				{"name": "a", "path": "data.csv", "columns": ["a"]},
				{"name": "b", "path": "data.csv", "columns": ["a"]}
			]}`,
			wantErr: "reuses path",
		},
		{
			name:    "empty path",
			cfg:     `{"tables": [{"name": "plants", "columns": ["a"]}]}`,
			wantErr: "empty path",
		},
		{
			name:    "no columns",
			cfg:     `{"tables": [{"name": "plants", "path": "a.csv", "columns": []}]}`,
			wantErr: "no columns",
		},
		{
			name:    "duplicate column",
			cfg:     `{"tables": [{"name": "plants", "path": "a.csv", "columns": ["a", "a"]}]}`,
			wantErr: "duplicate column",
		},
		{
			name:    "min columns too large",
			cfg:     `{"tables": [{"name": "plants", "path": "a.csv", "columns": ["a"], "min_columns": 3}]}`,
			wantErr: "out of range",
		},
		{
			name: "unknown style",
			cfg: `{"tables": [{"name": "plants", "path": "a.csv", "columns": ["a"]}],
				"folders": [{"name": "plants", "root": "photos", "style": "zigzag"}]}`,
			wantErr: "unknown style",
		},
		{
			name: "folder without root",
			cfg: `{"tables": [{"name": "plants", "path": "a.csv", "columns": ["a"]}],
				"folders": [{"name": "plants", "style": "plain"}]}`,
			wantErr: "empty root",
		},
		{
			name: "duplicate folder",
			cfg: `{"tables": [{"name": "plants", "path": "a.csv", "columns": ["a"]}],
				"folders": [
					{"name": "plants", "root": "a", "style": "plain"},
					{"name": "plants", "root": "b", "style": "plain"}
				]}`,
			wantErr: "duplicate folder name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempLayout(t, tt.cfg)
			_, err := LoadLayout(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
