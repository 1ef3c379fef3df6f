package weather

import (
	"strings"
	"time"
)

// Units is the unit system a fetch is performed in.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits normalizes a configured unit string. Anything that is not
// "metric" is treated as imperial, matching the application default.
func ParseUnits(s string) Units {
	if strings.EqualFold(strings.TrimSpace(s), string(UnitsMetric)) {
		return UnitsMetric
	}
	return UnitsImperial
}

// TemperatureUnit returns the provider's temperature_unit parameter value.
func (u Units) TemperatureUnit() string {
	if u == UnitsMetric {
		return "celsius"
	}
	return "fahrenheit"
}

// WindSpeedUnit returns the provider's wind_speed_unit parameter value.
func (u Units) WindSpeedUnit() string {
	if u == UnitsMetric {
		return "kmh"
	}
	return "mph"
}

// Labels returns the short temperature and wind labels shown next to values.
func (u Units) Labels() (temp, wind string) {
	if u == UnitsMetric {
		return "C", "km/h"
	}
	return "F", "mph"
}

// Location is a geocoded place.
type Location struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
}

// DisplayName renders "Name, CC", or just the name when the country code is empty.
func (l Location) DisplayName() string {
	return DisplayName(l.Name, l.CountryCode)
}

// DisplayName joins a resolved place name and a country code.
func DisplayName(name, countryCode string) string {
	name = strings.TrimSpace(name)
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		return strings.TrimRight(name, ", ")
	}
	if name == "" {
		return countryCode
	}
	return name + ", " + countryCode
}

// Record is the normalized result of a successful fetch for one city.
// Records are never mutated after they are emitted; nil fields were absent
// in the provider response.
type Record struct {
	DisplayName      string    `json:"displayName"`
	Temperature      *float64  `json:"temperature,omitempty"`
	FeelsLike        *float64  `json:"feelsLike,omitempty"`
	Humidity         *float64  `json:"humidity,omitempty"`
	WindSpeed        *float64  `json:"windSpeed,omitempty"`
	High             *float64  `json:"high,omitempty"`
	Low              *float64  `json:"low,omitempty"`
	Description      string    `json:"description"`
	IconGlyph        string    `json:"icon"`
	UTCOffsetSeconds int       `json:"utcOffsetSeconds"`
	Units            Units     `json:"units"`
	FetchedAt        time.Time `json:"fetchedAt"` // always UTC
}

// LocalTime returns t shifted into the record's location.
func (r Record) LocalTime(t time.Time) time.Time {
	return t.UTC().Add(time.Duration(r.UTCOffsetSeconds) * time.Second)
}
