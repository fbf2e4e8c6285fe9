package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

func TestStoreErrorKeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	err := storeError("error getting shortage facts", cause)

	assert.ErrorIs(t, err, domain.ErrExternalStoreUnavailable)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "08006", sqlState(err))
	assert.True(t, isConnectionFailure(err))

	assert.NoError(t, storeError("noop", nil))
}

func TestSQLStateFromPQ(t *testing.T) {
	err := fmt.Errorf("query: %w", &pq.Error{Code: "42P01"})
	assert.Equal(t, "42P01", sqlState(err))
	assert.False(t, isConnectionFailure(err))
	assert.Empty(t, sqlState(errors.New("plain")))
}

func TestConnectionString(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host: "db", Port: "5432", User: "report", Password: "secret", DBName: "erp", SSLMode: "disable",
	}

	driver, dsn := connectionString(cfg)
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgres://report:secret@db:5432/erp?sslmode=disable", dsn)

	cfg.Driver = "postgres"
	driver, dsn = connectionString(cfg)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "host=db port=5432 user=report password=secret dbname=erp sslmode=disable", dsn)
}
