package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/lost-found/internal/api"
	"github.com/dom/lost-found/internal/repository/memory"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/testutil"
	"github.com/dom/lost-found/internal/websocket"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         api.Pinger
		wantStatus int
	}{
		{name: "no database", db: nil, wantStatus: http.StatusOK},
		{name: "database up", db: stubPinger{}, wantStatus: http.StatusOK},
		{name: "database down", db: stubPinger{err: errors.New("no primary")}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.TestConfig()
			hub := websocket.NewHub()
			go hub.Run()
			defer hub.Stop()

			services := service.NewServices(memory.NewRepositories(), cfg, hub)
			router := api.NewRouter(services, hub, cfg, tt.db)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testutil.TestConfig()
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	router := api.NewRouter(service.NewServices(memory.NewRepositories(), cfg, hub), hub, cfg, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/notices", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
