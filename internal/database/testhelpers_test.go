package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB is a migrated database running in a throwaway container
type TestDB struct {
	*DB
	container testcontainers.Container
}

// SetupTestDB starts PostgreSQL, applies db/migrations and registers
// teardown with t.Cleanup
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := New(connStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		t.Fatalf("failed to connect to test database: %v", err)
	}

	testDB := &TestDB{DB: db, container: pgContainer}
	t.Cleanup(func() { testDB.teardown(t) })

	if err := testDB.Migrate(migrationsDir()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// migrationsDir resolves db/migrations relative to this file
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "db", "migrations")
}

func (tdb *TestDB) teardown(t *testing.T) {
	tdb.DB.Close()
	if err := tdb.container.Terminate(context.Background()); err != nil {
		t.Errorf("failed to terminate container: %v", err)
	}
}

// TruncateAll empties every table between subtests
func (tdb *TestDB) TruncateAll(t *testing.T) {
	t.Helper()

	_, err := tdb.conn.Exec(`TRUNCATE TABLE analysis_results, technical_indicators, price_data_daily`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// GetRawConn returns the underlying sql.DB for direct queries in tests
func (tdb *TestDB) GetRawConn() *sql.DB {
	return tdb.conn
}
