package types

import "fmt"

const (
	MsgCityNotFound         = "City not found. Please check the spelling and try again."
	MsgLocationWeather      = "Unable to fetch weather data for your location"
	MsgForecast             = "Unable to fetch forecast data"
	MsgLocationDenied       = "Unable to access your location. Please enable location services."
	MsgGeolocationMissing   = "Geolocation is not supported by your browser"
	MsgCityAlreadySaved     = "City is already in your dashboard"
	MsgStorageWrite         = "Unable to save your dashboard. Please try again."
	MsgSavedCityOutOfBounds = "That city is no longer on your dashboard."
)

// UserError is an error that carries a message fit for the error banner.
type UserError interface {
	error
	UserMessage() string
}

// NotFoundError is returned when a city name lookup fails.
type NotFoundError struct {
	City       string
	StatusCode int
	Err        error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("city %q: %v", e.City, e.Err)
	}
	return fmt.Sprintf("city %q: status %d", e.City, e.StatusCode)
}

func (e *NotFoundError) UserMessage() string { return MsgCityNotFound }
func (e *NotFoundError) Unwrap() error       { return e.Err }

// LocationLookupError is returned when the position itself is unavailable
// (denied, unsupported or timed out on the client).
type LocationLookupError struct {
	Unsupported bool
	Reason      string
}

func (e *LocationLookupError) Error() string {
	if e.Unsupported {
		return "geolocation unsupported"
	}
	if e.Reason != "" {
		return "geolocation failed: " + e.Reason
	}
	return "geolocation failed"
}

func (e *LocationLookupError) UserMessage() string {
	if e.Unsupported {
		return MsgGeolocationMissing
	}
	return MsgLocationDenied
}

// LocationWeatherError is returned when the coordinate lookup fails.
type LocationWeatherError struct {
	Coord      Coordinates
	StatusCode int
	Err        error
}

func (e *LocationWeatherError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather at %.4f,%.4f: %v", e.Coord.Lat, e.Coord.Lon, e.Err)
	}
	return fmt.Sprintf("weather at %.4f,%.4f: status %d", e.Coord.Lat, e.Coord.Lon, e.StatusCode)
}

func (e *LocationWeatherError) UserMessage() string { return MsgLocationWeather }
func (e *LocationWeatherError) Unwrap() error       { return e.Err }

type ForecastError struct {
	Coord      Coordinates
	StatusCode int
	Err        error
}

func (e *ForecastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forecast at %.4f,%.4f: %v", e.Coord.Lat, e.Coord.Lon, e.Err)
	}
	return fmt.Sprintf("forecast at %.4f,%.4f: status %d", e.Coord.Lat, e.Coord.Lon, e.StatusCode)
}

func (e *ForecastError) UserMessage() string { return MsgForecast }
func (e *ForecastError) Unwrap() error       { return e.Err }

// StorageError wraps a failure to read or write the persisted city list.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) UserMessage() string { return MsgStorageWrite }
func (e *StorageError) Unwrap() error       { return e.Err }

type DuplicateCityError struct {
	Key CityKey
}

func (e *DuplicateCityError) Error() string {
	return fmt.Sprintf("city %s, %s already saved", e.Key.Name, e.Key.Country)
}

func (e *DuplicateCityError) UserMessage() string { return MsgCityAlreadySaved }
