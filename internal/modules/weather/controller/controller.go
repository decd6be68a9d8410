package controller

import (
	"context"
	"net/http"
	"time"

	"skyboard/internal/modules/weather/dashboard"
	"skyboard/internal/modules/weather/types"
)

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Flows are the dashboard actions a form post can trigger.
type Flows interface {
	Search(ctx context.Context) error
	SearchFor(ctx context.Context, city string) error
	Locate(ctx context.Context, geo dashboard.Geolocator) error
	AddCurrent(ctx context.Context) error
	Remove(ctx context.Context, index int) error
}

type SavedLister interface {
	List() []types.SavedCity
}

type Deps struct {
	Flows         Flows
	Page          *dashboard.Page
	API           dashboard.WeatherAPI
	Cities        SavedLister
	PopularCities []string
	ErrorTTL      time.Duration
}

type weatherControllerImpl struct {
	flows         Flows
	page          *dashboard.Page
	api           dashboard.WeatherAPI
	cities        SavedLister
	popularCities []string
	errorTTL      time.Duration
}

func NewWeatherController(d Deps) WeatherController {
	return &weatherControllerImpl{
		flows:         d.Flows,
		page:          d.Page,
		api:           d.API,
		cities:        d.Cities,
		popularCities: d.PopularCities,
		errorTTL:      d.ErrorTTL,
	}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("POST /search", c.handleSearch)
	mux.HandleFunc("POST /search/popular", c.handlePopularSearch)
	mux.HandleFunc("POST /locate", c.handleLocate)
	mux.HandleFunc("POST /saved", c.handleAddSaved)
	mux.HandleFunc("POST /saved/{index}/delete", c.handleRemoveSaved)

	mux.HandleFunc("GET /api/v1/saved-cities", c.handleSavedCities)
	mux.HandleFunc("GET /api/v1/weather", c.handleWeather)
}
