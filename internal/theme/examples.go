package theme

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const baseCSS = `QWidget { font-family: "Segoe UI", "Helvetica Neue", Arial; }
QMenu { background-color: rgba(30,32,40,230); border: 1px solid rgba(255,255,255,25); }
QMenu::item { padding: 8px 16px; }
QMenu::item:selected { background: rgba(255,255,255,0.1); }
QDialog { background-color: #1E2028; }
QLineEdit, QComboBox { background: rgba(255,255,255,10); border: 1px solid rgba(255,255,255,30); border-radius: 8px; padding: 6px 8px; color: #E6E8EE; }
QPushButton { border: 1px solid rgba(255,255,255,35); color: #E6E8EE; border-radius: 10px; padding: 8px 14px; }
QPushButton:hover { background: rgba(255,255,255,22); }
QCheckBox { spacing: 8px; }
`

const lightCSS = `QWidget { color: #212121; font-family: "Segoe UI", "Helvetica Neue", Arial; }
QMenu { background-color: rgba(255,255,255,0.98); border: 1px solid rgba(0,0,0,40); }
QMenu::item { padding: 8px 16px; }
QMenu::item:selected { background: rgba(0,0,0,0.08); }
QDialog { background-color: #F7F9FB; }
QLineEdit, QComboBox { background: rgba(0,0,0,0.05); border: 1px solid rgba(0,0,0,0.12); border-radius: 8px; padding: 6px 8px; color: #212121; }
QPushButton { border: 1px solid rgba(0,0,0,0.15); color: #212121; border-radius: 10px; padding: 8px 14px; }
QPushButton:hover { background: rgba(0,0,0,0.08); }
QCheckBox { spacing: 8px; }
`

var examples = []struct {
	name    string
	css     string
	palette map[string]any
}{
	{"dark", baseCSS, map[string]any{
		"name":                "Dark",
		"background_gradient": []string{"#12141A", "#1A2036"},
		"glass_card_color":    "rgba(20,22,30,150)",
		"card_border_color":   "rgba(255,255,255,25)",
		"text_primary":        "#E6E8EE",
		"text_muted":          "#9EA3B8",
		"temp_color":          "#FFD18A",
		"high_color":          "#FFB347",
		"low_color":           "#7DD3FC",
		"link_color":          "#7DD3FC",
		"tab_bg":              "rgba(255,255,255,0.10)",
		"tab_bg_selected":     "rgba(255,255,255,0.18)",
		"tab_text":            "#E6E8EE",
		"tab_border":          "rgba(255,255,255,0.25)",
	}},
	{"light", lightCSS, map[string]any{
		"name":                "Light",
		"background_gradient": []string{"#F2F4F8", "#DDE3EE"},
		"glass_card_color":    "rgba(245,247,250,200)",
		"card_border_color":   "rgba(0,0,0,60)",
		"text_primary":        "#212121",
		"text_muted":          "#4E5D6C",
		"temp_color":          "#E65100",
		"high_color":          "#E57373",
		"low_color":           "#039BE5",
		"link_color":          "#1976D2",
		"tab_bg":              "rgba(0,0,0,0.08)",
		"tab_bg_selected":     "rgba(0,0,0,0.15)",
		"tab_text":            "#212121",
		"tab_border":          "rgba(0,0,0,0.20)",
	}},
	{"solarized", baseCSS, map[string]any{
		"name":                "Solarized",
		"background_gradient": []string{"#002b36", "#073642"},
		"glass_card_color":    "rgba(7,54,66,170)",
		"card_border_color":   "rgba(147,161,161,90)",
		"text_primary":        "#EEE8D5",
		"text_muted":          "#93A1A1",
		"temp_color":          "#B58900",
		"high_color":          "#CB4B16",
		"low_color":           "#268BD2",
		"link_color":          "#2AA198",
		"tab_bg":              "rgba(238,232,213,0.08)",
		"tab_bg_selected":     "rgba(238,232,213,0.16)",
		"tab_text":            "#EEE8D5",
		"tab_border":          "rgba(238,232,213,0.25)",
	}},
}

// Pack builds a theme archive from a stylesheet and a palette.
func Pack(name, css string, palette map[string]any) ([]byte, error) {
	raw, err := json.MarshalIndent(palette, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, member := range []struct {
		name string
		data []byte
	}{
		{name + ".css", []byte(css)},
		{name + ".json", raw},
	} {
		w, err := zw.Create(member.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(member.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EnsureExamples writes the bundled themes when the directory has none.
func (m *Manager) EnsureExamples() error {
	names, err := m.List()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}

	log.Printf("INFO: No themes found in %s; generating example themes", m.dir)
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create themes dir: %w", err)
	}
	for _, ex := range examples {
		data, err := Pack(ex.name, ex.css, ex.palette)
		if err != nil {
			return fmt.Errorf("pack theme %q: %w", ex.name, err)
		}
		if err := os.WriteFile(filepath.Join(m.dir, ex.name+".zip"), data, 0o644); err != nil {
			return fmt.Errorf("write theme %q: %w", ex.name, err)
		}
	}
	return nil
}
