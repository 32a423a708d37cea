package service

import (
	"context"
	"errors"
	"io"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/security/password"
)

const (
	maxUsernameLength = 150
	maxNicknameLength = 100
)

// ImageUpload is an image received from a client, already size-limited by the caller.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type AuthService struct {
	credentials *CredentialStore
	tokens      *TokenIssuer
	profiles    repository.ProfileRepository
	images      repository.ImageStore
}

func NewAuthService(credentials *CredentialStore, tokens *TokenIssuer, profiles repository.ProfileRepository, images repository.ImageStore) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		profiles:    profiles,
		images:      images,
	}
}

type RegisterInput struct {
	Username        string
	Nickname        string
	Email           string
	Password        string
	PasswordConfirm string
	ProfileImage    *ImageUpload
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User    *domain.User
	Profile *domain.Profile
	Token   string
}

func (in RegisterInput) validate() error {
	errs := fieldErrors{}

	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		errs.add("username", "This field is required.")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		errs.add("username", "Ensure this field has no more than 150 characters.")
	}

	if utf8.RuneCountInString(in.Nickname) > maxNicknameLength {
		errs.add("nickname", "Ensure this field has no more than 100 characters.")
	}

	if strings.TrimSpace(in.Email) == "" {
		errs.add("email", "This field is required.")
	} else if !isEmail(in.Email) {
		errs.add("email", "Enter a valid email address.")
	}

	if in.Password == "" {
		errs.add("password", "This field is required.")
	} else if err := password.Validate(in.Password); err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) {
			errs.add("password", "Ensure this field has at least 8 characters.")
		} else {
			errs.add("password", "Ensure this field has no more than 72 bytes.")
		}
	}

	if in.PasswordConfirm == "" {
		errs.add("password_confirm", "This field is required.")
	} else if in.Password != in.PasswordConfirm {
		errs.add("password_confirm", "Passwords do not match.")
	}

	return errs.err()
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Address == strings.TrimSpace(s) && strings.Contains(addr.Address, "@")
}

// Register creates the user, its first bearer token and an empty profile.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var imageID string
	if input.ProfileImage != nil {
		id, err := s.images.Save(ctx, input.ProfileImage.Filename, input.ProfileImage.ContentType, input.ProfileImage.Body)
		if err != nil {
			return nil, err
		}
		imageID = id
	}

	user, err := s.credentials.Create(ctx, NewUser{
		Email:          input.Email,
		Username:       strings.TrimSpace(input.Username),
		Password:       input.Password,
		Nickname:       input.Nickname,
		ProfileImageID: imageID,
	})
	if err != nil {
		if imageID != "" {
			if delErr := s.images.Delete(ctx, imageID); delErr != nil {
				log.Printf("ERROR [service.Register] failed to remove orphaned image %s: %v", imageID, delErr)
			}
		}
		return nil, err
	}

	// The account exists from here on; a failed token issue leaves it usable through Login.
	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		log.Printf("ERROR [service.Register] user %s created without a token: %v", user.ID, err)
		return nil, err
	}

	// A missing profile is recreated on the next profile read.
	profile := domain.NewProfile(user.ID, user.CreatedAt)
	profile.CalculateCompletion(user)
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		log.Printf("ERROR [service.Register] failed to create profile for user %s: %v", user.ID, err)
		profile = nil
	}

	return &AuthResult{User: user, Profile: profile, Token: token}, nil
}

// Login checks credentials and replaces the user's token with a fresh one.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	errs := fieldErrors{}
	if strings.TrimSpace(input.Email) == "" {
		errs.add("email", "This field is required.")
	}
	if input.Password == "" {
		errs.add("password", "This field is required.")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	user, err := s.credentials.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	profile, _, err := s.profiles.Find(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Profile: profile, Token: token}, nil
}

// Logout revokes the user's current token.
func (s *AuthService) Logout(ctx context.Context, user *domain.User) error {
	return s.tokens.Revoke(ctx, user)
}

// Authenticate resolves a bearer token to its user.
// An unknown or revoked token yields ErrAuthenticationFailed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	user, found, err := s.credentials.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAuthenticationFailed
	}
	return user, nil
}

// GetUserByID returns the user with id or ErrNotFound.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, found, err := s.credentials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return user, nil
}
