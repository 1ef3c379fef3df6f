package weather

import (
	"context"
	"fmt"
)

// Fetcher resolves a city name and returns its current conditions.
// Implementations must honour ctx cancellation on their network calls.
type Fetcher interface {
	Fetch(ctx context.Context, city string, units Units) (Record, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, city string, units Units) (Record, error)

func (f FetcherFunc) Fetch(ctx context.Context, city string, units Units) (Record, error) {
	return f(ctx, city, units)
}

// ErrorKind classifies a failed fetch.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindCityNotFound
	KindGeocodeFailed
	KindForecastFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindCityNotFound:
		return "city_not_found"
	case KindGeocodeFailed:
		return "geocode_failed"
	case KindForecastFailed:
		return "forecast_failed"
	default:
		return "network"
	}
}

// FetchError is the terminal failure of a single city's fetch.
type FetchError struct {
	Kind   ErrorKind
	City   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindCityNotFound:
		return fmt.Sprintf("City not found: %s", e.City)
	case KindGeocodeFailed:
		return fmt.Sprintf("Geocode error %d", e.Status)
	case KindForecastFailed:
		return fmt.Sprintf("Weather API error %d", e.Status)
	default:
		if e.Err == nil {
			return "network error"
		}
		return e.Err.Error()
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func ErrCityNotFound(city string) *FetchError {
	return &FetchError{Kind: KindCityNotFound, City: city}
}

func ErrGeocodeFailed(city string, status int) *FetchError {
	return &FetchError{Kind: KindGeocodeFailed, City: city, Status: status}
}

func ErrForecastFailed(city string, status int) *FetchError {
	return &FetchError{Kind: KindForecastFailed, City: city, Status: status}
}

func ErrNetwork(city string, err error) *FetchError {
	return &FetchError{Kind: KindNetwork, City: city, Err: err}
}

// Store is the contract for last-known record persistence.
type Store interface {
	Save(city string, rec Record) error
	Latest(city string) (Record, error)
	History(city string, limit int) ([]Record, error)
	Delete(city string) error
}
