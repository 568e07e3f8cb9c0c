package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by every e2e test in this package. The container lives until the test
// binary exits.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres(context.Background())
	})

	if pgErr != nil {
		t.Fatalf("postgres: %v", pgErr)
	}
	return pgDSN
}

func startPostgres(ctx context.Context) (string, error) {
	container, err := pgcontainer.Run(ctx,
		"postgres:18-alpine",
		pgcontainer.WithDatabase("dirtar"),
		pgcontainer.WithUsername("dirtar"),
		pgcontainer.WithPassword("dirtar"),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("connection string: %w", err)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(ctx); err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	return dsn, nil
}
