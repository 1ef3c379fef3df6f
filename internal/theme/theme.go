// Package theme loads named visual themes. A theme is a zip archive in the
// themes directory holding exactly one stylesheet (.css) and one palette (.json).
package theme

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrNotFound       = errors.New("theme not found")
	ErrInvalidArchive = errors.New("theme archive must contain one .css and one .json")
)

// Theme is a loaded theme.
type Theme struct {
	Name    string         `json:"name"`
	CSS     string         `json:"css"`
	Palette map[string]any `json:"palette"`
}

// String returns a palette string value or def.
func (t *Theme) String(key, def string) string {
	if t == nil {
		return def
	}
	if s, ok := t.Palette[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Gradient returns the two background gradient stops.
func (t *Theme) Gradient() [2]string {
	out := [2]string{"#12141A", "#1A2036"}
	if t == nil {
		return out
	}
	stops, ok := t.Palette["background_gradient"].([]any)
	if !ok {
		return out
	}
	for i := 0; i < len(stops) && i < 2; i++ {
		if s, ok := stops[i].(string); ok {
			out[i] = s
		}
	}
	return out
}

// LinkColor picks a link colour readable on the theme's background.
func (t *Theme) LinkColor() string {
	if l, ok := Lightness(t.Gradient()[0]); ok && l > 0.6 {
		return "#0A3D62"
	}
	return "#7DD3FC"
}

// Lightness returns the HLS lightness (0..1) of a #RRGGBB colour.
func Lightness(hex string) (float64, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	r := float64((v>>16)&0xff) / 255
	g := float64((v>>8)&0xff) / 255
	b := float64(v&0xff) / 255
	hi := max(r, g, b)
	lo := min(r, g, b)
	return (hi + lo) / 2, true
}

// Manager lists, loads and caches themes from a directory. It is safe for
// concurrent use.
type Manager struct {
	dir string

	mu      sync.RWMutex
	cache   map[string]*Theme
	current *Theme
}

func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		cache: make(map[string]*Theme),
	}
}

func (m *Manager) Dir() string { return m.dir }

// List returns the available theme names, sorted.
func (m *Manager) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*.zip"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(p), ".zip"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the named theme, makes it current and returns it.
func (m *Manager) Load(name string) (*Theme, error) {
	m.mu.RLock()
	t, ok := m.cache[name]
	m.mu.RUnlock()

	if !ok {
		var err error
		t, err = m.read(name)
		if err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.cache[name] = t
	m.current = t
	m.mu.Unlock()
	return t, nil
}

// Current returns the current theme, or nil if none was loaded.
func (m *Manager) Current() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) read(name string) (*Theme, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(m.dir, name+".zip"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, err
	}
	return Parse(name, data)
}

// Parse decodes a theme archive.
func Parse(name string, data []byte) (*Theme, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open theme %q: %w", name, err)
	}

	var cssFile, jsonFile *zip.File
	for _, f := range zr.File {
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".css":
			if cssFile != nil {
				return nil, ErrInvalidArchive
			}
			cssFile = f
		case ".json":
			if jsonFile != nil {
				return nil, ErrInvalidArchive
			}
			jsonFile = f
		}
	}
	if cssFile == nil || jsonFile == nil {
		return nil, ErrInvalidArchive
	}

	css, err := readMember(cssFile)
	if err != nil {
		return nil, err
	}
	raw, err := readMember(jsonFile)
	if err != nil {
		return nil, err
	}

	palette := map[string]any{}
	if err := json.Unmarshal(raw, &palette); err != nil {
		return nil, fmt.Errorf("invalid JSON in theme %q: %w", name, err)
	}

	return &Theme{Name: name, CSS: string(css), Palette: palette}, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
