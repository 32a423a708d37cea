package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

// Handle upgrades the connection after resolving ?token= to a user.
// Browsers cannot set headers on the upgrade request, so the bearer token travels in the query.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		log.Printf("ERROR [handlers.WebSocket] failed to authenticate: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR [handlers.WebSocket] upgrade failed: %v", err)
		return
	}

	h.hub.Register(websocket.NewClient(h.hub, conn, user.ID, token, h.revalidator(user.ID, token)))
}

// revalidator catches revocations made outside this process, such as the admin CLI.
// Store errors keep the connection open.
func (h *WebSocketHandler) revalidator(userID, token string) websocket.Revalidator {
	return func(ctx context.Context) bool {
		user, err := h.authService.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrAuthenticationFailed) {
				return false
			}
			log.Printf("ERROR [handlers.WebSocket] failed to revalidate token: %v", err)
			return true
		}
		return user.ID == userID
	}
}
