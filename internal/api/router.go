package api

import (
	"context"
	"log"
	"net/http"

	"github.com/dom/lost-found/internal/api/handlers"
	"github.com/dom/lost-found/internal/api/middleware"
	"github.com/dom/lost-found/internal/config"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires every route. db may be nil, in which case /health only reports liveness.
func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, db Pinger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				log.Printf("ERROR [api.Health] database ping failed: %v", err)
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("OK"))
	})

	urls := handlers.URLBuilder{BaseURL: cfg.PublicBaseURL}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, urls, cfg.MaxUploadBytes)
	profileHandler := handlers.NewProfileHandler(services.Profile, urls, cfg.MaxUploadBytes)
	noticeHandler := handlers.NewNoticeHandler(services.Notice, urls, cfg.MaxUploadBytes)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(services.Auth))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/profile/image/{userID}", profileHandler.Image)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/logout", authHandler.Logout)
				r.Get("/profile", profileHandler.Get)
				r.Patch("/profile", profileHandler.Update)
				r.Get("/profile/detail", profileHandler.Detail)
			})
		})

		r.Route("/api/notices", func(r chi.Router) {
			r.Get("/", noticeHandler.List)
			r.Get("/{noticeID}", noticeHandler.Get)
			r.Get("/{noticeID}/image", noticeHandler.Image)

			// Protected notice routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", noticeHandler.Create)
				r.Get("/my-notices", noticeHandler.MyNotices)
				r.Post("/{noticeID}/respond", noticeHandler.Respond)
				r.Post("/{noticeID}/complete", noticeHandler.Complete)
			})
		})
	})

	// WebSocket endpoint authenticates from the query string
	r.Get("/ws", wsHandler.Handle)

	return r
}
