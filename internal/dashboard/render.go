package dashboard

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/i474232898/tray-weather/internal/weather"
)

const (
	placeholder  = "-"
	appTitle     = "TrayWeatherApp"
	defaultGlyph = "☀️"
)

// View is a tab rendered for display.
type View struct {
	City        string          `json:"city"`
	Title       string          `json:"title"`
	Icon        string          `json:"icon"`
	Temperature string          `json:"temperature"`
	Description string          `json:"description"`
	FeelsLike   string          `json:"feelsLike"`
	High        string          `json:"high"`
	Low         string          `json:"low"`
	Humidity    string          `json:"humidity"`
	Wind        string          `json:"wind"`
	LocalTime   string          `json:"localTime"`
	Message     string          `json:"message,omitempty"`
	Primed      bool            `json:"primed,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	Record      *weather.Record `json:"record,omitempty"`
}

// TrayState is what the tray icon shows.
type TrayState struct {
	Icon    string `json:"icon"`
	Tooltip string `json:"tooltip"`
}

// Views renders every tab in order.
func (b *Board) Views() []View {
	out := make([]View, 0, len(b.order))
	for _, city := range b.order {
		out = append(out, b.render(b.tabs[city]))
	}
	return out
}

// View renders the tab for city.
func (b *Board) View(city string) (View, bool) {
	tab, ok := b.tabs[city]
	if !ok {
		return View{}, false
	}
	return b.render(tab), true
}

func (b *Board) render(tab *Tab) View {
	v := View{
		City:        tab.City,
		Title:       tab.Title,
		Icon:        weather.GlyphUnknown,
		Temperature: placeholder + "°",
		Description: placeholder,
		FeelsLike:   placeholder,
		High:        placeholder,
		Low:         placeholder,
		Humidity:    placeholder,
		Wind:        placeholder,
		LocalTime:   placeholder,
		Message:     tab.Message,
		Primed:      tab.Primed,
	}
	if !tab.UpdatedAt.IsZero() {
		ts := tab.UpdatedAt
		v.UpdatedAt = &ts
	}

	rec := tab.Record
	if rec == nil {
		if tab.Message != "" {
			v.Description = capitalize(tab.Message)
		}
		return v
	}

	tempLabel, windLabel := rec.Units.Labels()
	v.Record = rec
	v.Icon = rec.IconGlyph
	v.Temperature = formatTemp(rec.Temperature, tempLabel)
	v.Description = capitalize(rec.Description)
	v.FeelsLike = formatDegrees(rec.FeelsLike)
	v.High = formatDegrees(rec.High)
	v.Low = formatDegrees(rec.Low)
	v.Humidity = formatValue(rec.Humidity, "%.0f%%")
	v.Wind = formatValue(rec.WindSpeed, "%.1f "+windLabel)
	v.LocalTime = FormatClock(rec.LocalTime(b.now()), b.clock24h)
	return v
}

// Tray renders the tray icon state from the first tab.
func (b *Board) Tray() TrayState {
	if len(b.order) == 0 {
		return TrayState{Icon: defaultGlyph, Tooltip: appTitle}
	}
	tab := b.tabs[b.order[0]]
	if tab.Record == nil {
		desc := placeholder
		if tab.Message != "" {
			desc = capitalize(tab.Message)
		}
		return TrayState{
			Icon:    defaultGlyph,
			Tooltip: fmt.Sprintf("%s • %s • %s°", tab.Title, desc, placeholder),
		}
	}

	rec := tab.Record
	icon := rec.IconGlyph
	if icon == "" {
		icon = weather.GlyphUnknown
	}
	temp := placeholder + "°"
	if rec.Temperature != nil {
		temp = fmt.Sprintf("%.1f°", *rec.Temperature)
	}
	return TrayState{
		Icon:    icon,
		Tooltip: fmt.Sprintf("%s • %s • %s", tab.Title, capitalize(rec.Description), temp),
	}
}

// FormatClock renders a local time as "15:04" or "03:04 PM".
func FormatClock(t time.Time, clock24h bool) string {
	if clock24h {
		return t.Format("15:04")
	}
	return t.Format("03:04 PM")
}

func formatTemp(v *float64, label string) string {
	if v == nil {
		return placeholder + "°"
	}
	return fmt.Sprintf("%.1f°%s", *v, label)
}

func formatDegrees(v *float64) string {
	return formatValue(v, "%.1f°")
}

func formatValue(v *float64, format string) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf(format, *v)
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
