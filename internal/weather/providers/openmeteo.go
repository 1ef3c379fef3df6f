package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/tray-weather/internal/applog"
	"github.com/i474232898/tray-weather/internal/common"
	"github.com/i474232898/tray-weather/internal/weather"
)

const (
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

var (
	currentFields = []string{
		"temperature_2m", "apparent_temperature",
		"relative_humidity_2m", "wind_speed_10m", "weather_code",
	}
	dailyFields = []string{"temperature_2m_max", "temperature_2m_min", "weather_code"}
)

// OpenMeteoClient implements weather.Fetcher against the Open-Meteo geocoding
// and forecast APIs. It is safe for concurrent use.
type OpenMeteoClient struct {
	name        string
	geocodeURL  string
	forecastURL string
	client      *http.Client
	circuit     *gobreaker.CircuitBreaker
	now         func() time.Time
}

// NewOpenMeteoClient returns a client using the given HTTP client. The HTTP
// client's Timeout bounds each of the two requests a fetch makes.
func NewOpenMeteoClient(client *http.Client) *OpenMeteoClient {
	return &OpenMeteoClient{
		name:        "openmeteo",
		geocodeURL:  DefaultGeocodeURL,
		forecastURL: DefaultForecastURL,
		client:      client,
		circuit:     newCircuitBreaker("openmeteo"),
		now:         time.Now,
	}
}

func (p *OpenMeteoClient) Name() string {
	return p.name
}

type geocodeResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
		Country     string  `json:"country"`
	} `json:"results"`
}

type forecastResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          struct {
		Temperature         *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		RelativeHumidity    *float64 `json:"relative_humidity_2m"`
		WindSpeed           *float64 `json:"wind_speed_10m"`
		WeatherCode         *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		TemperatureMin []*float64 `json:"temperature_2m_min"`
		WeatherCode    []*int     `json:"weather_code"`
	} `json:"daily"`
}

// Geocode resolves city to its single best match.
func (p *OpenMeteoClient) Geocode(ctx context.Context, city string) (weather.Location, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", city)
		values.Set("count", "1")

		u := fmt.Sprintf("%s?%s", p.geocodeURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Location{}, weather.ErrNetwork(city, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return weather.Location{}, weather.ErrGeocodeFailed(city, resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Location{}, weather.ErrNetwork(city, fmt.Errorf("decode geocode response: %w", err))
	}
	if len(payload.Results) == 0 {
		return weather.Location{}, weather.ErrCityNotFound(city)
	}

	r := payload.Results[0]
	return weather.Location{
		Name:        common.FirstNonEmpty(r.Name, city),
		CountryCode: common.FirstNonEmpty(r.CountryCode, r.Country),
		Lat:         r.Latitude,
		Lon:         r.Longitude,
	}, nil
}

func (p *OpenMeteoClient) forecast(ctx context.Context, city string, loc weather.Location, units weather.Units) (forecastResponse, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("current", strings.Join(currentFields, ","))
		values.Set("daily", strings.Join(dailyFields, ","))
		values.Set("timezone", "auto")
		values.Set("temperature_unit", units.TemperatureUnit())
		values.Set("wind_speed_unit", units.WindSpeedUnit())

		u := fmt.Sprintf("%s?%s", p.forecastURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return forecastResponse{}, weather.ErrNetwork(city, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return forecastResponse{}, weather.ErrForecastFailed(city, resp.StatusCode)
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return forecastResponse{}, weather.ErrNetwork(city, fmt.Errorf("decode forecast response: %w", err))
	}
	return payload, nil
}

// Fetch geocodes city, requests its current and daily conditions and maps the
// result into a Record. Every error returned is a *weather.FetchError.
func (p *OpenMeteoClient) Fetch(ctx context.Context, city string, units weather.Units) (weather.Record, error) {
	loc, err := p.Geocode(ctx, city)
	if err != nil {
		return weather.Record{}, err
	}
	applog.Debugf("%s: geocoded %q to %.4f,%.4f", p.name, city, loc.Lat, loc.Lon)

	payload, err := p.forecast(ctx, city, loc, units)
	if err != nil {
		return weather.Record{}, err
	}

	now := p.now()
	night := weather.IsNightHour(weather.LocalHour(now, payload.UTCOffsetSeconds))
	desc, glyph := weather.DescribeCode(payload.Current.WeatherCode, night)

	return weather.Record{
		DisplayName:      loc.DisplayName(),
		Temperature:      payload.Current.Temperature,
		FeelsLike:        payload.Current.ApparentTemperature,
		Humidity:         payload.Current.RelativeHumidity,
		WindSpeed:        payload.Current.WindSpeed,
		High:             first(payload.Daily.TemperatureMax),
		Low:              first(payload.Daily.TemperatureMin),
		Description:      desc,
		IconGlyph:        glyph,
		UTCOffsetSeconds: payload.UTCOffsetSeconds,
		Units:            units,
		FetchedAt:        now.UTC(),
	}, nil
}

// first returns today's entry of a daily series.
func first(vals []*float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
