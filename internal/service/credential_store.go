package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/security/password"
	"github.com/google/uuid"
)

// CredentialStore persists identities and checks passwords against them.
type CredentialStore struct {
	users  repository.UserRepository
	hasher *password.Hasher

	// dummyDigest is verified against when the email is unknown so both failure paths cost one bcrypt compare.
	dummyDigest string
}

func NewCredentialStore(users repository.UserRepository, hasher *password.Hasher) *CredentialStore {
	digest, err := hasher.Hash("placeholder-password")
	if err != nil {
		log.Printf("ERROR [service.NewCredentialStore] failed to prepare placeholder digest: %v", err)
	}
	return &CredentialStore{
		users:       users,
		hasher:      hasher,
		dummyDigest: digest,
	}
}

// NormalizeEmail lower-cases and trims an email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type NewUser struct {
	Email          string
	Username       string
	Password       string
	Nickname       string
	ProfileImageID string
}

// Create stores a new user with a hashed password and a fresh identifier.
func (s *CredentialStore) Create(ctx context.Context, in NewUser) (*domain.User, error) {
	email := NormalizeEmail(in.Email)

	if _, found, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if found {
		return nil, &DuplicateIdentityError{Field: "email"}
	}
	if _, found, err := s.users.FindByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if found {
		return nil, &DuplicateIdentityError{Field: "username"}
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		Username:       in.Username,
		Nickname:       in.Nickname,
		PasswordHash:   digest,
		ProfileImageID: in.ProfileImageID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		var dup repository.DuplicateKeyError
		if errors.As(err, &dup) && (dup.Field == "email" || dup.Field == "username") {
			return nil, &DuplicateIdentityError{Field: dup.Field}
		}
		return nil, err
	}
	return user, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, bool, error) {
	return s.users.FindByID(ctx, id)
}

// FindByEmail looks up a user by email, ignoring case.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return s.users.FindByEmail(ctx, NormalizeEmail(email))
}

// FindByToken looks up the holder of token. The match is exact; an empty token never matches.
func (s *CredentialStore) FindByToken(ctx context.Context, token string) (*domain.User, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	return s.users.FindByToken(ctx, token)
}

// VerifyCredentials returns the user for a matching email and password.
// Unknown email and wrong password both yield ErrAuthFailed.
func (s *CredentialStore) VerifyCredentials(ctx context.Context, email, plaintext string) (*domain.User, error) {
	user, found, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		s.hasher.Verify(plaintext, s.dummyDigest)
		return nil, ErrAuthFailed
	}
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, ErrAuthFailed
	}
	return user, nil
}
