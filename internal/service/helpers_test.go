package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/repository/memory"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/testutil"
	"github.com/stretchr/testify/require"
)

type notification struct {
	UserID  string
	Event   string
	Payload any
}

type disconnect struct {
	UserID       string
	CurrentToken string
}

type recordingNotifier struct {
	mu          sync.Mutex
	events      []notification
	disconnects []disconnect
}

func (n *recordingNotifier) DisconnectStale(userID, currentToken string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disconnects = append(n.disconnects, disconnect{UserID: userID, CurrentToken: currentToken})
	return 0
}

func (n *recordingNotifier) Disconnects() []disconnect {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]disconnect(nil), n.disconnects...)
}

func (n *recordingNotifier) Notify(userID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{UserID: userID, Event: event, Payload: payload})
}

func (n *recordingNotifier) For(userID string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notification
	for _, e := range n.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	Repos    *repository.Repositories
	Services *service.Services
	Notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := memory.NewRepositories()
	notifier := &recordingNotifier{}
	return &testEnv{
		Repos:    repos,
		Services: service.NewServices(repos, testutil.TestConfig(), notifier),
		Notifier: notifier,
	}
}

func (e *testEnv) register(t *testing.T, username string) *service.AuthResult {
	t.Helper()

	result, err := e.Services.Auth.Register(context.Background(), service.RegisterInput{
		Username:        username,
		Email:           strings.ToLower(username) + "@test.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) postNotice(t *testing.T, owner *domain.User) *domain.Notice {
	t.Helper()

	view, err := e.Services.Notice.Create(context.Background(), owner, service.CreateNoticeInput{
		Title:       "Lost wallet",
		Type:        "lost",
		Date:        "2024-05-01",
		Venue:       "Library",
		Contact:     "555-0100",
		Description: "Brown leather wallet",
	})
	require.NoError(t, err)
	return view.Notice
}
