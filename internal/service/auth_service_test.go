package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/repository/memory"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterInput() service.RegisterInput {
	return service.RegisterInput{
		Username:        "u1",
		Nickname:        "User One",
		Email:           "u1@test.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		mutate     func(in *service.RegisterInput)
		setup      func(t *testing.T, env *testEnv)
		wantErr    error
		wantFields []string
	}{
		{
			name: "successful registration",
		},
		{
			name:   "email is lower-cased",
			mutate: func(in *service.RegisterInput) { in.Email = "U1@Test.COM" },
		},
		{
			name:       "missing fields",
			mutate:     func(in *service.RegisterInput) { *in = service.RegisterInput{} },
			wantErr:    service.ErrValidation,
			wantFields: []string{"username", "email", "password", "password_confirm"},
		},
		{
			name:       "invalid email",
			mutate:     func(in *service.RegisterInput) { in.Email = "not-an-email" },
			wantErr:    service.ErrValidation,
			wantFields: []string{"email"},
		},
		{
			name: "short password",
			mutate: func(in *service.RegisterInput) {
				in.Password = "short"
				in.PasswordConfirm = "short"
			},
			wantErr:    service.ErrValidation,
			wantFields: []string{"password"},
		},
		{
			name:       "password mismatch",
			mutate:     func(in *service.RegisterInput) { in.PasswordConfirm = "password124" },
			wantErr:    service.ErrValidation,
			wantFields: []string{"password_confirm"},
		},
		{
			name: "duplicate email in other case",
			mutate: func(in *service.RegisterInput) {
				in.Email = "A@x.com"
				in.Username = "second"
			},
			setup: func(t *testing.T, env *testEnv) {
				in := validRegisterInput()
				in.Email = "a@x.com"
				in.Username = "first"
				_, err := env.Services.Auth.Register(context.Background(), in)
				require.NoError(t, err)
			},
			wantErr: service.ErrDuplicateIdentity,
		},
		{
			name: "duplicate username",
			setup: func(t *testing.T, env *testEnv) {
				in := validRegisterInput()
				in.Email = "other@test.com"
				_, err := env.Services.Auth.Register(context.Background(), in)
				require.NoError(t, err)
			},
			wantErr: service.ErrDuplicateIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(t, env)
			}

			in := validRegisterInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			result, err := env.Services.Auth.Register(ctx, in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if len(tt.wantFields) > 0 {
					var verr *service.ValidationError
					require.True(t, errors.As(err, &verr))
					for _, f := range tt.wantFields {
						assert.Contains(t, verr.Fields, f)
					}
				}
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.Equal(t, service.NormalizeEmail(in.Email), result.User.Email)
			assert.Equal(t, in.Username, result.User.Username)
			assert.Equal(t, in.Nickname, result.User.Nickname)
			assert.NotEqual(t, in.Password, result.User.PasswordHash)
			require.NotNil(t, result.Profile)
			assert.Equal(t, result.User.ID, result.Profile.UserID)

			user, err := env.Services.Auth.Authenticate(ctx, result.Token)
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, user.ID)
		})
	}
}

func TestAuthService_RegisterWithProfileImage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	in := validRegisterInput()
	in.ProfileImage = &service.ImageUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        bytes.NewReader([]byte("png-bytes")),
	}

	result, err := env.Services.Auth.Register(ctx, in)
	require.NoError(t, err)
	require.True(t, result.User.HasProfileImage())

	img, found, err := env.Repos.Image.Open(ctx, result.User.ProfileImageID)
	require.NoError(t, err)
	require.True(t, found)
	defer img.Body.Close()
	data, err := io.ReadAll(img.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", img.ContentType)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	registered := env.register(t, "login")

	t.Run("issues a different token and invalidates the previous one", func(t *testing.T) {
		result, err := env.Services.Auth.Login(ctx, service.LoginInput{Email: "LOGIN@test.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, result.User.ID)
		assert.NotEqual(t, registered.Token, result.Token)

		_, err = env.Services.Auth.Authenticate(ctx, registered.Token)
		assert.ErrorIs(t, err, service.ErrAuthenticationFailed)

		user, err := env.Services.Auth.Authenticate(ctx, result.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, user.ID)
	})

	t.Run("wrong password and unknown email fail the same way", func(t *testing.T) {
		_, wrongPassword := env.Services.Auth.Login(ctx, service.LoginInput{Email: "login@test.com", Password: "nope-nope"})
		_, unknownEmail := env.Services.Auth.Login(ctx, service.LoginInput{Email: "ghost@test.com", Password: "password123"})

		assert.Equal(t, service.ErrAuthFailed, wrongPassword)
		assert.Equal(t, wrongPassword, unknownEmail)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := env.Services.Auth.Login(ctx, service.LoginInput{})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	registered := env.register(t, "logout")

	user, err := env.Services.Auth.Authenticate(ctx, registered.Token)
	require.NoError(t, err)
	require.NoError(t, env.Services.Auth.Logout(ctx, user))

	_, err = env.Services.Auth.Authenticate(ctx, registered.Token)
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "auth")

	for _, tok := range []string{"", "garbage", "Bearer"} {
		_, err := env.Services.Auth.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, service.ErrAuthenticationFailed, "token %q", tok)
	}
}

type failingTokenWrites struct {
	repository.UserRepository
}

func (failingTokenWrites) SetToken(ctx context.Context, id, token string, at time.Time) error {
	return errors.New("write conflict")
}

type failingProfileWrites struct {
	repository.ProfileRepository
}

func (failingProfileWrites) Upsert(ctx context.Context, profile *domain.Profile) error {
	return errors.New("write conflict")
}

func TestAuthService_RegisterProfileFailureKeepsAccount(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	repos.Profile = failingProfileWrites{repos.Profile}
	services := service.NewServices(repos, testutil.TestConfig(), nil)

	result, err := services.Auth.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	assert.Nil(t, result.Profile)
	require.NotEmpty(t, result.Token)

	user, err := services.Auth.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
}

func TestAuthService_RegisterTokenFailureLeavesLoginableAccount(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	users := repos.User
	repos.User = failingTokenWrites{users}
	broken := service.NewServices(repos, testutil.TestConfig(), nil)

	_, err := broken.Auth.Register(ctx, validRegisterInput())
	require.Error(t, err)

	repos.User = users
	healthy := service.NewServices(repos, testutil.TestConfig(), nil)

	_, err = healthy.Auth.Register(ctx, validRegisterInput())
	assert.ErrorIs(t, err, service.ErrDuplicateIdentity)

	in := validRegisterInput()
	login, err := healthy.Auth.Login(ctx, service.LoginInput{Email: in.Email, Password: in.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Nil(t, login.Profile)

	profile, err := healthy.Profile.Detail(ctx, login.User)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, profile.UserID)
}
