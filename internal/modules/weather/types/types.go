package types

import (
	"math"
	"time"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeatherSnapshot is one resolved current-conditions reading.
// Units: °C, %, m/s, m, hPa, %.
type WeatherSnapshot struct {
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Temp        float64     `json:"temp"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	FeelsLike   float64     `json:"feels_like"`
	Humidity    int         `json:"humidity"`
	WindSpeed   float64     `json:"wind_speed"`
	Visibility  int         `json:"visibility"`
	Pressure    int         `json:"pressure"`
	Cloudiness  int         `json:"cloudiness"`
	Coord       Coordinates `json:"coord"`
}

// SavedCity is a snapshot pinned to the dashboard. It keeps the snapshot's
// JSON form so the persisted list stays readable by older builds.
type SavedCity WeatherSnapshot

type CityKey struct {
	Name    string
	Country string
}

func (s WeatherSnapshot) Key() CityKey { return CityKey{Name: s.Name, Country: s.Country} }

func (c SavedCity) Key() CityKey { return CityKey{Name: c.Name, Country: c.Country} }

// ForecastDay is one card of the multi-day strip.
type ForecastDay struct {
	Date        time.Time `json:"date"`
	Label       string    `json:"label"`
	Day         string    `json:"day"`
	Icon        string    `json:"icon"`
	MaxTemp     int       `json:"maxTemp"`
	MinTemp     int       `json:"minTemp"`
	Description string    `json:"description"`
}

// Round rounds to the nearest integer with halves going up (-2.5 -> -2),
// the rounding used on every displayed value.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}
