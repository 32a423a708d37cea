package service

import (
	"github.com/dom/lost-found/internal/config"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/security/password"
)

type Services struct {
	Credentials *CredentialStore
	Tokens      *TokenIssuer
	Auth        *AuthService
	Profile     *ProfileService
	Notice      *NoticeService
}

// Realtime is the push channel to connected clients.
type Realtime interface {
	Notifier
	SessionCloser
}

// NewServices wires the services over repos. realtime may be nil when no clients can connect.
func NewServices(repos *repository.Repositories, cfg *config.Config, realtime Realtime) *Services {
	credentials := NewCredentialStore(repos.User, password.NewHasher(cfg.BcryptCost))
	tokens := NewTokenIssuer(repos.User, realtime)

	return &Services{
		Credentials: credentials,
		Tokens:      tokens,
		Auth:        NewAuthService(credentials, tokens, repos.Profile, repos.Image),
		Profile:     NewProfileService(repos.User, repos.Profile, repos.Image),
		Notice:      NewNoticeService(repos.Notice, repos.Response, repos.User, repos.Image, realtime),
	}
}
