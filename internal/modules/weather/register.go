package weather

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"skyboard/internal/config"
	"skyboard/internal/modules/weather/controller"
	"skyboard/internal/modules/weather/dashboard"
	"skyboard/internal/modules/weather/openweather"
	"skyboard/internal/modules/weather/repository"
	"skyboard/internal/modules/weather/store"
	"skyboard/internal/modules/weather/views"
)

// RegisterFeature builds the dashboard over db and mounts its routes.
// publisher may be nil.
func RegisterFeature(ctx context.Context, mux *http.ServeMux, db *sql.DB, cfg config.Config, publisher dashboard.SnapshotPublisher, logger *slog.Logger) *dashboard.Dashboard {
	kv := repository.NewRepository(db)
	cities := store.Load(ctx, kv, cfg.SavedCitiesKey, logger)

	api := openweather.NewClient(cfg.OWMAPIKey, cfg.OWMBaseURL,
		openweather.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		openweather.WithRateLimit(cfg.APIRPS, cfg.APIBurst),
		openweather.WithLocation(cfg.DisplayLocation),
		openweather.WithLogger(logger),
	)

	page := dashboard.NewPage()
	dash := dashboard.New(api, cities, views.Fragments{}, page, dashboard.Options{
		ErrorTTL:  cfg.ErrorBannerTTL,
		Publisher: publisher,
		Logger:    logger,
	})
	dash.Start()

	controller.NewWeatherController(controller.Deps{
		Flows:         dash,
		Page:          page,
		API:           api,
		Cities:        cities,
		PopularCities: cfg.PopularCities,
		ErrorTTL:      cfg.ErrorBannerTTL,
	}).RegisterRoutes(mux)

	logger.Info("weather feature registered", "saved_cities", cities.Len(), "popular", len(cfg.PopularCities))
	return dash
}
