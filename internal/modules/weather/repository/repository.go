package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed sql/get-value.sql
var getValueSQL string

//go:embed sql/put-value.sql
var putValueSQL string

//go:embed sql/delete-value.sql
var deleteValueSQL string

// KeyValueRepository is a single-table key-value store. Each key holds one
// opaque text value that is replaced as a whole on every write.
type KeyValueRepository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) KeyValueRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getValueSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (r *repositoryImpl) Put(ctx context.Context, key string, value string) error {
	if key == "" {
		return errors.New("put: empty key")
	}
	if _, err := r.db.ExecContext(ctx, putValueSQL, key, value); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (r *repositoryImpl) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteValueSQL, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
