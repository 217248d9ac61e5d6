package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/phim-stream/internal/api"
	"github.com/dom/phim-stream/internal/config"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/dom/phim-stream/internal/repository"
	"github.com/dom/phim-stream/internal/repository/memory"
	repoPostgres "github.com/dom/phim-stream/internal/repository/postgres"
	"github.com/dom/phim-stream/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated
// connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_phim_stream"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(testDB.Cleanup)

	testDB.DSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	testDB.DB, err = gorm.Open(gormPostgres.Open(testDB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(testDB.DB); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"accounts"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		StoreDriver:        config.StoreDriverMemory,
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		BcryptCost:         4, // bcrypt.MinCost keeps tests fast
		DefaultAvatar:      "/avatar_macdinh.jpg",
		CatalogTimeout:     2 * time.Second,
		LogLevel:           "error",
		LogFormat:          "text",
	}
}

// DiscardLogger returns a logger that drops every record
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Metrics  *metrics.Metrics
	Config   *config.Config
}

// NewTestServer creates a complete test server over the in-memory store.
// catalogUpstream may be nil when a test does not touch the movie routes.
func NewTestServer(t *testing.T, catalogUpstream http.Handler) *TestServer {
	t.Helper()

	cfg := TestConfig()
	if catalogUpstream != nil {
		upstream := httptest.NewServer(catalogUpstream)
		t.Cleanup(upstream.Close)
		cfg.CatalogBaseURL = upstream.URL
	}

	return newTestServer(t, cfg, memory.NewRepositories())
}

// NewTestServerWithDB creates a test server backed by a PostgreSQL container.
func NewTestServerWithDB(t *testing.T, testDB *TestDB) *TestServer {
	t.Helper()
	return newTestServer(t, TestConfig(), repoPostgres.NewRepositories(testDB.DB))
}

func newTestServer(t *testing.T, cfg *config.Config, repos *repository.Repositories) *TestServer {
	t.Helper()

	m := metrics.New()
	log := DiscardLogger()

	services, err := service.NewServices(repos, cfg, m, nil, log)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	router := api.NewRouter(services, m, cfg, nil, log)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Metrics:  m,
		Config:   cfg,
	}
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}
