package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultOWMBaseURL    = "https://api.openweathermap.org/data/2.5"
	DefaultPopularCities = "London,New York,Tokyo,Paris,Sydney,Dubai"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	OWMAPIKey  string
	OWMBaseURL string
	// APITimeout bounds each weather request. Zero means no timeout.
	APITimeout time.Duration
	// APIRPS throttles weather requests client-side. Zero disables it.
	APIRPS   float64
	APIBurst int

	DisplayLocation *time.Location
	SavedCitiesKey  string
	ErrorBannerTTL  time.Duration
	PopularCities   []string

	// MQTTBroker empty turns snapshot publishing off.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logSQL, err := envBool("DB_LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}

	apiKey := strings.TrimSpace(os.Getenv("OWM_API_KEY"))
	if apiKey == "" {
		return Config{}, fmt.Errorf("OWM_API_KEY is required")
	}
	apiTimeout, err := envDuration("WEATHER_API_TIMEOUT", 0)
	if err != nil {
		return Config{}, err
	}
	if apiTimeout < 0 {
		return Config{}, fmt.Errorf("WEATHER_API_TIMEOUT must be >= 0")
	}

	rpsStr := envOr("WEATHER_API_RPS", "0")
	rps, err := strconv.ParseFloat(rpsStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid WEATHER_API_RPS %q: %w", rpsStr, err)
	}
	if rps < 0 {
		return Config{}, fmt.Errorf("WEATHER_API_RPS must be >= 0")
	}
	burst, err := envInt("WEATHER_API_BURST", 1)
	if err != nil {
		return Config{}, err
	}
	if burst < 1 {
		return Config{}, fmt.Errorf("WEATHER_API_BURST must be >= 1")
	}

	tzName := envOr("DISPLAY_TZ", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TZ %q: %w", tzName, err)
	}

	bannerTTL, err := envDuration("ERROR_BANNER_TTL", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	if bannerTTL <= 0 {
		return Config{}, fmt.Errorf("ERROR_BANNER_TTL must be > 0")
	}

	mqttPort, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort < 1 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT %d out of range", mqttPort)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		Driver:          envOr("DB_DRIVER", "sqlite3"),
		DSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		Path:            envOr("SQLITE_PATH", "data/skyboard.db"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		OWMAPIKey:       apiKey,
		OWMBaseURL:      strings.TrimRight(envOr("OWM_BASE_URL", DefaultOWMBaseURL), "/"),
		APITimeout:      apiTimeout,
		APIRPS:          rps,
		APIBurst:        burst,
		DisplayLocation: loc,
		SavedCitiesKey:  envOr("SAVED_CITIES_KEY", "savedCities"),
		ErrorBannerTTL:  bannerTTL,
		PopularCities:   parseList(envOr("POPULAR_CITIES", DefaultPopularCities)),
		MQTTBroker:      strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:        mqttPort,
		MQTTClientID:    envOr("MQTT_CLIENT_ID", "skyboard"),
		MQTTTopic:       envOr("MQTT_TOPIC", "skyboard/snapshots"),
	}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

// parseList splits a comma-separated list, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
