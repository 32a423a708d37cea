package mongodb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/repository/mongodb"
	"github.com/dom/lost-found/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongodb integration test in short mode")
	}
	testDB := testutil.NewTestDB(t)
	return mongodb.NewRepositories(testDB.Store)
}

func newUser(username string) *domain.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.User{
		ID:           uuid.NewString(),
		Email:        username + "@test.com",
		Username:     username,
		PasswordHash: "hashed",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.User.Create(ctx, newUser("alice")))

	tests := []struct {
		name      string
		user      func() *domain.User
		wantField string
	}{
		{
			name: "duplicate email",
			user: func() *domain.User {
				u := newUser("alice2")
				u.Email = "alice@test.com"
				return u
			},
			wantField: "email",
		},
		{
			name: "duplicate username",
			user: func() *domain.User {
				u := newUser("alice")
				u.Email = "other@test.com"
				return u
			},
			wantField: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repos.User.Create(ctx, tt.user())
			require.Error(t, err)
			assert.True(t, errors.Is(err, repository.ErrDuplicateKey))

			var dup repository.DuplicateKeyError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, tt.wantField, dup.Field)
		})
	}
}

func TestUserRepository_Find(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	user := newUser("bob")
	require.NoError(t, repos.User.Create(ctx, user))

	got, found, err := repos.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	got, found, err = repos.User.FindByEmail(ctx, "bob@test.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, user.ID, got.ID)

	got, found, err = repos.User.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, user.ID, got.ID)

	_, found, err = repos.User.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	byID, err := repos.User.FindByIDs(ctx, []string{user.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Contains(t, byID, user.ID)
}

func TestUserRepository_Token(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	alice := newUser("alice")
	bob := newUser("bob")
	require.NoError(t, repos.User.Create(ctx, alice))
	require.NoError(t, repos.User.Create(ctx, bob))

	// Users without a token must not collide on the partial unique index.
	_, found, err := repos.User.FindByToken(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)

	now := time.Now().UTC()
	require.NoError(t, repos.User.SetToken(ctx, alice.ID, "token-a", now))

	got, found, err := repos.User.FindByToken(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, alice.ID, got.ID)

	_, found, err = repos.User.FindByToken(ctx, "TOKEN-A")
	require.NoError(t, err)
	assert.False(t, found, "token lookup is case-sensitive")

	err = repos.User.SetToken(ctx, bob.ID, "token-a", now)
	var dup repository.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "token", dup.Field)

	require.NoError(t, repos.User.SetToken(ctx, alice.ID, "token-b", now))
	_, found, err = repos.User.FindByToken(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, found, "overwritten token must not resolve")

	require.NoError(t, repos.User.ClearToken(ctx, alice.ID, now))
	_, found, err = repos.User.FindByToken(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, repos.User.SetToken(ctx, "missing", "x", now), repository.ErrNotFound)
	assert.ErrorIs(t, repos.User.ClearToken(ctx, "missing", now), repository.ErrNotFound)
}

func TestUserRepository_UpdateProfileFields(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	user := newUser("carol")
	require.NoError(t, repos.User.Create(ctx, user))

	user.Nickname = "Caz"
	user.ProfileImageID = "img-1"
	require.NoError(t, repos.User.UpdateProfileFields(ctx, user))

	got, _, err := repos.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Caz", got.Nickname)
	assert.Equal(t, "img-1", got.ProfileImageID)

	user.ProfileImageID = ""
	require.NoError(t, repos.User.UpdateProfileFields(ctx, user))
	got, _, err = repos.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.HasProfileImage())

	missing := newUser("nobody")
	assert.ErrorIs(t, repos.User.UpdateProfileFields(ctx, missing), repository.ErrNotFound)
}
