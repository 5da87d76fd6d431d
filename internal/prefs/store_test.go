package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.yaml"))
	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != skyplot.DefaultViewConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestFileStore_PartialKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("glonass: false\nzenith_style: CIRCLE\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := skyplot.DefaultViewConfig()
	want.ShowGLONASS = false
	want.ZenithStyle = skyplot.ZenithCircle
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	tests := map[string]string{
		"not yaml":      "gps: [unterminated\n",
		"wrong type":    "show_unused: sometimes\n",
		"unknown style": "gps: false\nzenith_style: HEXAGON\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, err := NewFileStore(path).Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if cfg != skyplot.DefaultViewConfig() {
				t.Errorf("cfg = %+v, want defaults", cfg)
			}
		})
	}
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.yaml")
	s := NewFileStore(path)

	cfg := skyplot.ViewConfig{
		ShowGPS:     true,
		ShowGLONASS: false,
		ShowGALILEO: true,
		ShowBEIDOU:  false,
		ShowUnused:  false,
		ZenithStyle: skyplot.ZenithStar,
	}
	if err := s.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "zenith_style: STAR") {
		t.Errorf("file does not store the style by name:\n%s", data)
	}

	got, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileStore_SaveIntoMissingDir(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "prefs.yaml"))
	if err := s.Save(skyplot.DefaultViewConfig()); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	cfg, _ := m.Load()
	if cfg != skyplot.DefaultViewConfig() {
		t.Errorf("initial = %+v", cfg)
	}
	cfg.ShowGPS = false
	if err := m.Save(cfg); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Load(); got != cfg || m.Saves() != 1 {
		t.Errorf("after save: %+v, saves=%d", got, m.Saves())
	}
}
