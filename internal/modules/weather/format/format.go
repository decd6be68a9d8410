// Package format reshapes OpenWeatherMap payloads into dashboard view models.
package format

import (
	"time"

	"skyboard/internal/modules/weather/types"
)

// ForecastDays is the number of cards in the forecast strip.
const ForecastDays = 5

const (
	dayLayout   = "Mon"
	labelLayout = "Mon, Jan 2"
	bucketKey   = "2006-01-02"
)

// Current projects a /weather response onto a snapshot. No unit conversion.
func Current(raw CurrentResponse) types.WeatherSnapshot {
	cond := firstCondition(raw.Weather)
	return types.WeatherSnapshot{
		Name:        raw.Name,
		Country:     raw.Sys.Country,
		Temp:        raw.Main.Temp,
		Description: cond.Description,
		Icon:        cond.Icon,
		FeelsLike:   raw.Main.FeelsLike,
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
		Visibility:  raw.Visibility,
		Pressure:    raw.Main.Pressure,
		Cloudiness:  raw.Clouds.All,
		Coord:       types.Coordinates{Lat: raw.Coord.Lat, Lon: raw.Coord.Lon},
	}
}

type dayBucket struct {
	date    time.Time
	samples []ForecastSample
}

// Forecast folds 3-hourly samples into at most ForecastDays daily cards.
//
// Samples are bucketed by calendar date in loc, in encounter order. Each
// card takes icon and description from the middle sample of its bucket and
// reports the max of temp_max and the min of temp_min, rounded. Missing days
// are not padded.
func Forecast(raw ForecastResponse, loc *time.Location) []types.ForecastDay {
	if loc == nil {
		loc = time.Local
	}

	var buckets []*dayBucket
	index := make(map[string]*dayBucket)
	for _, s := range raw.List {
		t := time.Unix(s.Dt, 0).In(loc)
		key := t.Format(bucketKey)
		b, ok := index[key]
		if !ok {
			if len(buckets) == ForecastDays {
				continue
			}
			y, m, d := t.Date()
			b = &dayBucket{date: time.Date(y, m, d, 0, 0, 0, 0, loc)}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.samples = append(b.samples, s)
	}

	days := make([]types.ForecastDay, 0, len(buckets))
	for _, b := range buckets {
		mid := firstCondition(b.samples[len(b.samples)/2].Weather)
		maxTemp := b.samples[0].Main.TempMax
		minTemp := b.samples[0].Main.TempMin
		for _, s := range b.samples[1:] {
			maxTemp = max(maxTemp, s.Main.TempMax)
			minTemp = min(minTemp, s.Main.TempMin)
		}
		days = append(days, types.ForecastDay{
			Date:        b.date,
			Label:       b.date.Format(labelLayout),
			Day:         b.date.Format(dayLayout),
			Icon:        mid.Icon,
			MaxTemp:     types.Round(maxTemp),
			MinTemp:     types.Round(minTemp),
			Description: mid.Description,
		})
	}
	return days
}
