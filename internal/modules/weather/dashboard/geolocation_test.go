package dashboard

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"skyboard/internal/modules/weather/types"
)

func TestFormGeolocator(t *testing.T) {
	tests := []struct {
		name        string
		values      url.Values
		supported   bool
		want        types.Coordinates
		unsupported bool
		lookupErr   bool
	}{
		{"coordinates", url.Values{"lat": {"51.5"}, "lon": {"-0.12"}}, true, types.Coordinates{Lat: 51.5, Lon: -0.12}, false, false},
		{"no fields", url.Values{}, false, types.Coordinates{}, true, false},
		{"unsupported flag", url.Values{"unsupported": {"1"}, "lat": {"1"}, "lon": {"1"}}, false, types.Coordinates{}, true, false},
		{"denied", url.Values{"error": {"User denied Geolocation"}}, true, types.Coordinates{}, false, true},
		{"bad latitude", url.Values{"lat": {"91"}, "lon": {"0"}}, true, types.Coordinates{}, false, true},
		{"bad longitude", url.Values{"lat": {"0"}, "lon": {"east"}}, true, types.Coordinates{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := FormGeolocator{Values: tt.values}
			if got := g.Supported(); got != tt.supported {
				t.Errorf("Supported() = %v; want %v", got, tt.supported)
			}

			pos, err := g.CurrentPosition(context.Background())
			if tt.unsupported {
				if !errors.Is(err, ErrGeolocationUnsupported) {
					t.Fatalf("err = %v; want ErrGeolocationUnsupported", err)
				}
				return
			}
			if tt.lookupErr {
				var le *types.LocationLookupError
				if !errors.As(err, &le) {
					t.Fatalf("err = %v; want LocationLookupError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CurrentPosition: %v", err)
			}
			if pos != tt.want {
				t.Errorf("pos = %v; want %v", pos, tt.want)
			}
		})
	}
}
