package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/security/token"
)

// issueAttempts bounds retries on the astronomically unlikely token collision.
const issueAttempts = 3

// SessionCloser drops live connections opened with a token that no longer authenticates.
type SessionCloser interface {
	DisconnectStale(userID, currentToken string) int
}

// TokenIssuer mints bearer tokens and stores them on the user record.
// A user holds at most one token; issuing replaces it.
type TokenIssuer struct {
	users    repository.UserRepository
	sessions SessionCloser
}

// NewTokenIssuer returns an issuer. sessions may be nil.
func NewTokenIssuer(users repository.UserRepository, sessions SessionCloser) *TokenIssuer {
	return &TokenIssuer{users: users, sessions: sessions}
}

// Issue generates a new token for user, overwriting any previous one.
func (t *TokenIssuer) Issue(ctx context.Context, user *domain.User) (string, error) {
	for attempt := 0; attempt < issueAttempts; attempt++ {
		tok, err := token.New(token.DefaultBytes)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}

		now := time.Now().UTC()
		err = t.users.SetToken(ctx, user.ID, tok, now)
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", err
		}

		user.Token = tok
		user.UpdatedAt = now
		if t.sessions != nil {
			t.sessions.DisconnectStale(user.ID, tok)
		}
		return tok, nil
	}
	return "", errors.New("could not generate a unique token")
}

// Revoke clears the stored token so it no longer authenticates.
func (t *TokenIssuer) Revoke(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if err := t.users.ClearToken(ctx, user.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	user.Token = ""
	user.UpdatedAt = now
	if t.sessions != nil {
		t.sessions.DisconnectStale(user.ID, "")
	}
	return nil
}
