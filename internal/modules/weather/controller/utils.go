package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"skyboard/internal/modules/weather/types"
)

type weatherQuery struct {
	city  string
	coord types.Coordinates
}

// parseWeatherQuery accepts either q=<city> or both lat and lon.
func parseWeatherQuery(r *http.Request) (weatherQuery, error) {
	v := r.URL.Query()

	if city := strings.TrimSpace(v.Get("q")); city != "" {
		return weatherQuery{city: city}, nil
	}

	latStr, lonStr := v.Get("lat"), v.Get("lon")
	if latStr == "" && lonStr == "" {
		return weatherQuery{}, errors.New("missing 'q' or 'lat'/'lon'")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return weatherQuery{}, errors.New("invalid 'lat' (expected number)")
	}
	if lat < -90 || lat > 90 {
		return weatherQuery{}, errors.New("'lat' must be within [-90, 90]")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return weatherQuery{}, errors.New("invalid 'lon' (expected number)")
	}
	if lon < -180 || lon > 180 {
		return weatherQuery{}, errors.New("'lon' must be within [-180, 180]")
	}
	return weatherQuery{coord: types.Coordinates{Lat: lat, Lon: lon}}, nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing index")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid index (expected integer)")
	}
	if n < 0 {
		return 0, errors.New("index must be >= 0")
	}
	return n, nil
}
