package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-feature-engine/internal/testutil/containers"
)

// TestDB provides a migrated throwaway database backed by a postgres
// container. Each TestDB is isolated; the container is torn down with the
// test.
type TestDB struct {
	t         *testing.T
	db        *sql.DB
	container *containers.PostgresContainer
	connStr   string
}

// NewTestDB starts a postgres container and applies all migrations.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := containers.NewPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", container.ConnectionString)
	require.NoError(t, err)

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	require.NoError(t, db.Ping())

	tdb := &TestDB{
		t:         t,
		db:        db,
		container: container,
		connStr:   container.ConnectionString,
	}

	t.Cleanup(func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	tdb.InitSchema()

	return tdb
}

// DB returns the underlying database connection
func (tdb *TestDB) DB() *sql.DB {
	return tdb.db
}

// ConnectionString returns the container's connection string, for callers
// that open their own pool.
func (tdb *TestDB) ConnectionString() string {
	return tdb.connStr
}

// InitSchema applies every up migration shipped with the repo, in order.
func (tdb *TestDB) InitSchema() {
	tdb.t.Helper()

	files, err := upMigrations()
	require.NoError(tdb.t, err)
	require.NotEmpty(tdb.t, files, "no migrations found")

	ctx := context.Background()
	for _, file := range files {
		content, err := os.ReadFile(file)
		require.NoError(tdb.t, err)
		_, err = tdb.db.ExecContext(ctx, string(content))
		require.NoError(tdb.t, err, "applying %s", filepath.Base(file))
	}
}

// TruncateTables clears the given tables and resets their sequences, so row
// ids restart at 1.
func (tdb *TestDB) TruncateTables(tables ...string) {
	tdb.t.Helper()

	if len(tables) == 0 {
		tables = []string{"transactions"}
	}

	ctx := context.Background()
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE",
		strings.Join(tables, ", "))
	_, err := tdb.db.ExecContext(ctx, query)
	require.NoError(tdb.t, err)
}

// RunInTransaction executes a function within a transaction that is always
// rolled back, for tests that must not leave state behind.
func (tdb *TestDB) RunInTransaction(fn func(*sql.Tx) error) error {
	tx, err := tdb.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			tdb.t.Errorf("failed to rollback transaction: %v", rbErr)
		}
	}()

	return fn(tx)
}

// upMigrations lists the repo's up migration files in apply order. The
// migrations directory is located relative to this source file so tests in
// any package resolve it.
func upMigrations() ([]string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("cannot locate migrations directory")
	}

	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
