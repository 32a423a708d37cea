package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/lost-found/internal/api"
	"github.com/dom/lost-found/internal/config"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/repository/memory"
	"github.com/dom/lost-found/internal/repository/mongodb"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/websocket"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"golang.org/x/crypto/bcrypt"
)

// TestDB manages a testcontainers MongoDB instance
type TestDB struct {
	Container *tcmongo.MongoDBContainer
	Store     *mongodb.Store
	URI       string
}

// NewTestDB starts a MongoDB container and opens a store on a fresh database.
// The test is skipped when no container runtime is available.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcmongo.Run(ctx, "mongo:6")
	if err != nil {
		t.Fatalf("failed to start mongodb container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		t.Fatalf("failed to get connection string: %v", err)
	}

	database := "test_lost_found_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	store, err := mongodb.Open(ctx, uri, database)
	if err != nil {
		_ = container.Terminate(context.Background())
		t.Fatalf("failed to connect to database: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		Store:     store,
		URI:       uri,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup closes the client and terminates the container
func (tdb *TestDB) Cleanup() {
	ctx := context.Background()
	if tdb.Store != nil {
		_ = tdb.Store.Close(ctx)
	}
	if tdb.Container != nil {
		_ = tdb.Container.Terminate(ctx)
	}
}

// Truncate drops the database and recreates its indexes for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	if err := tdb.Store.Database().Drop(ctx); err != nil {
		t.Fatalf("failed to drop database: %v", err)
	}
	if err := tdb.Store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to recreate indexes: %v", err)
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:           "0", // Random port
		Environment:    "test",
		AllowedOrigins: []string{"*"},
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "test_lost_found",
		BcryptCost:     bcrypt.MinCost, // Fast hashing for tests
		MaxUploadBytes: 1 << 20,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by in-memory repositories
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithRepos(t, memory.NewRepositories())
}

// NewTestServerWithRepos creates a complete test server over repos
func NewTestServerWithRepos(t *testing.T, repos *repository.Repositories) *TestServer {
	t.Helper()

	cfg := TestConfig()

	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(repos, cfg, hub)
	router := api.NewRouter(services, hub, cfg, nil)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/ws?token=%s", wsURL, token)
}
