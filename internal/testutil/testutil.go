// Package testutil holds Postgres fixtures shared by repository tests.
//
// Tests skip when no database answers unless TEST_REQUIRE_DB (or
// TEST_REQUIRE_INFRA) is set. With TEST_DB_EPHEMERAL each test runs in its own
// schema, which is dropped afterwards.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/migrate"
)

// TestingTB is the subset of testing.TB the fixtures need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

// DefaultTestDBConfig reads TEST_DB_* overrides. The default port 55432 is
// the compose test profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() config.DBConfig {
	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "55432"))
	if err != nil {
		port = 55432
	}
	return config.DBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     envOr("TEST_DB_USER", "complaintdesk"),
		Password: envOr("TEST_DB_PASSWORD", "complaintdesk"),
		Name:     envOr("TEST_DB_NAME", "complaintdesk"),
		SSLMode:  envOr("DB_SSL_MODE", "disable"),
	}
}

// SkipIfNoTestDB skips t (or fails it when a database is required) if the
// test database does not answer a ping.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()
	db, err := open(DefaultTestDBConfig().DSN(), 2*time.Second)
	if err != nil {
		if envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") {
			t.Fatal("test database not available:", err)
		}
		t.Skip("test database not available:", err)
		return
	}
	_ = db.Close()
}

// WithAutoDB runs fn against a migrated database. In shared mode the tables
// are emptied before and after fn.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)

	if envBool("TEST_DB_EPHEMERAL") {
		fn(ephemeralDB(t))
		return
	}

	db, err := open(DefaultTestDBConfig().DSN(), 5*time.Second)
	if err != nil {
		t.Fatal("open test database:", err)
	}
	migrateOrFail(t, db)
	truncate(t, db)
	t.Cleanup(func() {
		truncate(t, db)
		_ = db.Close()
	})
	fn(db)
}

func ephemeralDB(t TestingTB) *sql.DB {
	t.Helper()
	base := DefaultTestDBConfig()

	admin, err := open(base.DSN(), 5*time.Second)
	if err != nil {
		t.Fatal("open admin database:", err)
	}
	schema := schemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db, err := open(base.DSN()+"&search_path="+schema+",public", 10*time.Second)
	if err != nil {
		_ = admin.Close()
		t.Fatal("open schema database:", err)
	}
	db.SetMaxOpenConns(10)

	t.Logf("using ephemeral schema %s", schema)
	t.Cleanup(func() {
		_ = db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		_ = admin.Close()
	})

	migrateOrFail(t, db)
	return db
}

func migrateOrFail(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := migrate.Run(ctx, db, nil); err != nil {
		t.Fatal("run migrations:", err)
	}
}

// truncate empties every table; responses, attachments and notifications
// cascade from complaints and users.
func truncate(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "TRUNCATE notifications, complaints, users, departments CASCADE"); err != nil {
		t.Fatalf("truncate test tables: %v", err)
	}
}

func open(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func schemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "t_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "t_" + hex.EncodeToString(b)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// ConcurrentTestRunner fires operations at the same database at once.
type ConcurrentTestRunner struct {
	t  TestingTB
	db *sql.DB
}

// NewConcurrentTestRunner returns a runner bound to t and db.
func NewConcurrentTestRunner(t TestingTB, db *sql.DB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t, db: db}
}

// RunConcurrent starts every fn together and returns their errors in
// argument order.
func (r *ConcurrentTestRunner) RunConcurrent(fns ...func() error) []error {
	r.t.Helper()
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}
