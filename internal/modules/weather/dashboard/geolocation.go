package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"skyboard/internal/modules/weather/types"
)

var ErrGeolocationUnsupported = errors.New("geolocation unsupported")

// Geolocator supplies the user's position, or fails with
// ErrGeolocationUnsupported or a *types.LocationLookupError.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (types.Coordinates, error)
}

// FormGeolocator reads a position the browser already resolved and posted
// as lat/lon, error or unsupported form values.
type FormGeolocator struct {
	Values url.Values
}

func (g FormGeolocator) CurrentPosition(_ context.Context) (types.Coordinates, error) {
	v := g.Values
	if v.Get("unsupported") != "" {
		return types.Coordinates{}, ErrGeolocationUnsupported
	}
	if reason := strings.TrimSpace(v.Get("error")); reason != "" {
		return types.Coordinates{}, &types.LocationLookupError{Reason: reason}
	}
	latStr, lonStr := strings.TrimSpace(v.Get("lat")), strings.TrimSpace(v.Get("lon"))
	if latStr == "" && lonStr == "" {
		// No script ran on the client, so nothing could ask for a position.
		return types.Coordinates{}, ErrGeolocationUnsupported
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return types.Coordinates{}, &types.LocationLookupError{Reason: fmt.Sprintf("invalid latitude %q", latStr)}
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return types.Coordinates{}, &types.LocationLookupError{Reason: fmt.Sprintf("invalid longitude %q", lonStr)}
	}
	return types.Coordinates{Lat: lat, Lon: lon}, nil
}

// GeolocatorFunc adapts a function to Geolocator.
type GeolocatorFunc func(ctx context.Context) (types.Coordinates, error)

func (f GeolocatorFunc) CurrentPosition(ctx context.Context) (types.Coordinates, error) {
	return f(ctx)
}

// Supported is false when the browser reported no geolocation capability or
// posted no position fields at all.
func (g FormGeolocator) Supported() bool {
	v := g.Values
	if v.Get("unsupported") != "" {
		return false
	}
	return v.Get("error") != "" || v.Get("lat") != "" || v.Get("lon") != ""
}
