// Package testutil provides PostgreSQL container helpers for integration tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/arpgcore/internal/config"
	"github.com/cory-johannsen/arpgcore/internal/storage/postgres"
)

const postgresImage = "postgres:16-alpine"

// PostgresContainer is a disposable PostgreSQL instance with a connected pool.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL container and connects a pool to it.
// The container and pool are released when the test ends.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool, or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "arpg",
				"POSTGRES_PASSWORD": "arpg",
				"POSTGRES_DB":       "arpg_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v [%s]", postgresImage, err, time.Since(start))
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "arpg",
		Password:        "arpg",
		Name:            "arpg_test",
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(pool.Close)

	t.Logf("postgres container ready at %s:%d [%s]", host, cfg.Port, time.Since(start))
	return &PostgresContainer{container: container, Pool: pool, Config: cfg}
}

// ApplyMigrations runs the module's migrations directory against the
// container with golang-migrate.
//
// Postcondition: The saves table exists in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	start := time.Now()

	dir, err := MigrationsDir()
	if err != nil {
		t.Fatalf("locating migrations: %v", err)
	}
	version, _, err := postgres.Migrate(pc.Config.DSN(), dir, 0, false)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied to version %d [%s]", version, time.Since(start))
}

// MigrationsDir walks up from the working directory to the module root and
// returns its migrations directory.
func MigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}

// NewMigratedPool starts a container, applies migrations and returns its pool.
// The test is skipped under -short.
func NewMigratedPool(t *testing.T) *postgres.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.Pool
}
