package contentstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

var (
	testPool      *pgxpool.Pool
	minioEndpoint string

	// containerErr is set when the container suites cannot start. Tests that
	// need no containers still run.
	containerErr error
)

// requireContainers skips t when the postgres and minio containers are not running.
func requireContainers(t *testing.T) {
	t.Helper()
	if containerErr != nil {
		t.Skipf("containers unavailable: %v", containerErr)
	}
}

func startPostgres(ctx context.Context) (testcontainers.Container, error) {
	pgCtr, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("gardenledger"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return pgCtr, fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := pgCtr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgCtr, fmt.Errorf("get connection string: %w", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		return pgCtr, fmt.Errorf("create pool: %w", err)
	}
	if err := RunMigrations(ctx, testPool); err != nil {
		return pgCtr, fmt.Errorf("run migrations: %w", err)
	}
	return pgCtr, nil
}

func startMinio(ctx context.Context) (testcontainers.Container, error) {
	minioCtr, err := testcontainers.Run(ctx, "minio/minio:RELEASE.2025-04-22T22-12-26Z",
		testcontainers.WithExposedPorts("9000/tcp"),
		testcontainers.WithEnv(map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		}),
		testcontainers.WithCmd("server", "/data"),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return minioCtr, fmt.Errorf("start minio container: %w", err)
	}

	minioEndpoint, err = minioCtr.PortEndpoint(ctx, "9000/tcp", "http")
	if err != nil {
		return minioCtr, fmt.Errorf("get minio endpoint: %w", err)
	}
	return minioCtr, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgCtr, err := startPostgres(ctx)
	var minioCtr testcontainers.Container
	if err == nil {
		minioCtr, err = startMinio(ctx)
	}
	if err != nil {
		containerErr = err
		fmt.Fprintf(os.Stderr, "skipping container tests: %v\n", err)
	}

	code := m.Run()

	if testPool != nil {
		testPool.Close()
	}
	_ = testcontainers.TerminateContainer(pgCtr)
	_ = testcontainers.TerminateContainer(minioCtr)

	os.Exit(code)
}
