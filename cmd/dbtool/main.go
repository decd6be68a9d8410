// Command dbtool maintains the dashboard database outside the server:
// applying migrations and inspecting or clearing the saved-city list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"skyboard/internal/config"
	"skyboard/internal/db"
	"skyboard/internal/db/migrate"
	"skyboard/internal/modules/weather/repository"
)

const usage = `usage: dbtool <command>
  migrate  apply pending schema migrations
  saved    print the saved-city list as stored
  clear    delete the saved-city list
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// dbConfig reads only the database variables; the weather API key is not
// needed here.
func dbConfig() config.Config {
	return config.Config{
		Driver:       envOr("DB_DRIVER", "sqlite3"),
		DSN:          strings.TrimSpace(os.Getenv("DB_DSN")),
		Path:         envOr("SQLITE_PATH", "data/skyboard.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

func run(ctx context.Context, command string, out io.Writer) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	conn, err := db.Open(dbConfig(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	key := envOr("SAVED_CITIES_KEY", "savedCities")
	repo := repository.NewRepository(conn)

	switch command {
	case "migrate":
		if err := migrate.Run(ctx, conn, logger); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "migrations applied")
		return err
	case "saved":
		value, found, err := repo.Get(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			value = "[]"
		}
		_, err = fmt.Fprintln(out, value)
		return err
	case "clear":
		if err := repo.Delete(ctx, key); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "cleared %q\n", key)
		return err
	default:
		return fmt.Errorf("unknown command (see usage)\n%s", usage)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
