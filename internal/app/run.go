package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"skyboard/internal/config"
	"skyboard/internal/db"
	"skyboard/internal/db/migrate"
	"skyboard/internal/httpapi"
	weather "skyboard/internal/modules/weather"
	"skyboard/internal/modules/weather/dashboard"
	weatherviews "skyboard/internal/modules/weather/views"
	"skyboard/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbLogSQL", cfg.LogSQL,
		"owmBaseURL", cfg.OWMBaseURL,
		"apiTimeout", cfg.APITimeout,
		"apiRPS", cfg.APIRPS,
		"displayTZ", cfg.DisplayLocation.String(),
		"savedCitiesKey", cfg.SavedCitiesKey,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn, logger); err != nil {
		return err
	}
	logger.Info("database ready")

	if err := weatherviews.LoadTemplates(); err != nil {
		return err
	}

	var publisher dashboard.SnapshotPublisher
	var mqttPublisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		mqttPublisher = mqtt.NewPublisher(cfg, logger)
		// Startup does not wait long for the broker; paho keeps retrying.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := mqttPublisher.Connect(connectCtx); err != nil {
			logger.Warn("mqtt connection failed (continuing, snapshots dropped until connected)", "error", err)
		}
		connectCancel()
		publisher = mqttPublisher
	}

	mux := httpapi.NewMux(dbConn)
	weather.RegisterFeature(ctx, mux, dbConn, cfg, publisher, logger)

	srv := httpapi.NewServer(cfg.HTTPAddr, mux)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttPublisher != nil {
		mqttPublisher.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
