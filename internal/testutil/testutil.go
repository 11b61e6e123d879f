package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vcafe/identity-service/internal/api"
	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/oauth"
	"github.com/vcafe/identity-service/internal/repository/memory"
	"github.com/vcafe/identity-service/internal/service"
	"golang.org/x/crypto/bcrypt"
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

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_identity"),
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

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&domain.User{},
		&domain.OAuthLink{},
	)
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"o_auth_links",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing. The bcrypt cost
// is the minimum so hashing does not dominate test time.
func TestConfig() *config.Config {
	return &config.Config{
		Port:              "0", // Random port
		Environment:       "test",
		JWTAccessSecret:   "test-access-secret-key-for-testing-only",
		JWTRefreshSecret:  "test-refresh-secret-key-for-testing-only",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		BcryptCost:        bcrypt.MinCost,
		PasswordMinLength: 8,
		Google: config.OAuthProvider{
			ClientID:     "test-google-client",
			ClientSecret: "test-google-secret",
			CallbackURL:  "http://localhost:8080/api/v1/auth/google/callback",
		},
		Discord: config.OAuthProvider{
			ClientID:     "test-discord-client",
			ClientSecret: "test-discord-secret",
			CallbackURL:  "http://localhost:8080/api/v1/auth/discord/callback",
		},
		LoginRedirectURL: "/app",
	}
}

// TestServer holds all components for handler testing, wired on the
// in-memory credential store.
type TestServer struct {
	Server   *httptest.Server
	Repo     *memory.UserRepository
	Services *service.Services
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()
	repo := memory.NewUserRepository()
	services := service.NewServices(repo, cfg)
	providers := oauth.NewClients(cfg)
	router := api.NewRouter(services, providers, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repo:     repo,
		Services: services,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}
