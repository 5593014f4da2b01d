//go:build integration

package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the server image used by StartPostgres.
const PostgresImage = "postgres:17-alpine"

// StartPostgres runs a throwaway Postgres container, applies all migrations
// and returns a pool connected to it. The container is terminated when the
// test finishes.
func StartPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, PostgresImage,
		tcpostgres.WithDatabase("travel_test"),
		tcpostgres.WithUsername("travel"),
		tcpostgres.WithPassword("travel"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("testutil.StartPostgres: start container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("testutil.StartPostgres: terminate: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("testutil.StartPostgres: connection string: %v", err)
	}

	pool := OpenPool(t, dsn)

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := Migrate(ctx, sqlDB); err != nil {
		t.Fatalf("testutil.StartPostgres: %v", err)
	}
	return pool
}
