// Package prefs persists the sky plot view configuration.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

// DefaultFile is used when PREFS_FILE is not configured.
const DefaultFile = "skyplot_prefs.yaml"

// document is the on-disk form. Pointers tell a missing key from false.
type document struct {
	GPS         *bool   `yaml:"gps,omitempty"`
	GLONASS     *bool   `yaml:"glonass,omitempty"`
	Galileo     *bool   `yaml:"galileo,omitempty"`
	BeiDou      *bool   `yaml:"beidou,omitempty"`
	ShowUnused  *bool   `yaml:"show_unused,omitempty"`
	ZenithStyle *string `yaml:"zenith_style,omitempty"`
}

func fromConfig(cfg skyplot.ViewConfig) document {
	style := cfg.ZenithStyle.String()
	return document{
		GPS:         &cfg.ShowGPS,
		GLONASS:     &cfg.ShowGLONASS,
		Galileo:     &cfg.ShowGALILEO,
		BeiDou:      &cfg.ShowBEIDOU,
		ShowUnused:  &cfg.ShowUnused,
		ZenithStyle: &style,
	}
}

// toConfig overlays the keys present in d onto the defaults.
func (d document) toConfig() (skyplot.ViewConfig, error) {
	cfg := skyplot.DefaultViewConfig()
	for _, f := range []struct {
		src *bool
		dst *bool
	}{
		{d.GPS, &cfg.ShowGPS},
		{d.GLONASS, &cfg.ShowGLONASS},
		{d.Galileo, &cfg.ShowGALILEO},
		{d.BeiDou, &cfg.ShowBEIDOU},
		{d.ShowUnused, &cfg.ShowUnused},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if d.ZenithStyle != nil {
		style, err := skyplot.ParseZenithStyle(*d.ZenithStyle)
		if err != nil {
			return skyplot.DefaultViewConfig(), err
		}
		cfg.ZenithStyle = style
	}
	return cfg, nil
}

// FileStore keeps the configuration in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the stored configuration. A missing file yields the defaults
// and no error; an unreadable or corrupt one yields the defaults and the
// error.
func (s *FileStore) Load() (skyplot.ViewConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return skyplot.DefaultViewConfig(), nil
	}
	if err != nil {
		return skyplot.DefaultViewConfig(), fmt.Errorf("reading prefs %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return skyplot.DefaultViewConfig(), fmt.Errorf("parsing prefs %s: %w", s.path, err)
	}
	cfg, err := doc.toConfig()
	if err != nil {
		return cfg, fmt.Errorf("prefs %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes cfg to a temporary file next to the target and renames it
// into place, so readers never see a partial file.
func (s *FileStore) Save(cfg skyplot.ViewConfig) error {
	data, err := yaml.Marshal(fromConfig(cfg))
	if err != nil {
		return fmt.Errorf("encoding prefs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp prefs file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing prefs %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore keeps the configuration in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	cfg   skyplot.ViewConfig
	saves int
}

// NewMemoryStore returns a store holding the defaults.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cfg: skyplot.DefaultViewConfig()}
}

func (m *MemoryStore) Load() (skyplot.ViewConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg, nil
}

func (m *MemoryStore) Save(cfg skyplot.ViewConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
