package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *userRepository {
	return &userRepository{users: make(map[string]domain.User)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return repository.DuplicateKeyError{Field: "id"}
	}
	for _, u := range r.users {
		switch {
		case u.Email == user.Email:
			return repository.DuplicateKeyError{Field: "email"}
		case u.Username == user.Username:
			return repository.DuplicateKeyError{Field: "username"}
		case user.Token != "" && u.Token == user.Token:
			return repository.DuplicateKeyError{Field: "token"}
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.findFirst(func(u *domain.User) bool { return u.Email == email })
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.findFirst(func(u *domain.User) bool { return u.Username == username })
}

func (r *userRepository) FindByToken(ctx context.Context, token string) (*domain.User, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	return r.findFirst(func(u *domain.User) bool { return u.Token == token })
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (r *userRepository) SetToken(ctx context.Context, id, token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Token == token {
			return repository.DuplicateKeyError{Field: "token"}
		}
	}
	u.Token = token
	u.UpdatedAt = now
	r.users[id] = u
	return nil
}

func (r *userRepository) ClearToken(ctx context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Token = ""
	u.UpdatedAt = now
	r.users[id] = u
	return nil
}

func (r *userRepository) UpdateProfileFields(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Nickname = user.Nickname
	u.ProfileImageID = user.ProfileImageID
	u.UpdatedAt = user.UpdatedAt
	r.users[user.ID] = u
	return nil
}

func (r *userRepository) findFirst(match func(*domain.User) bool) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(&u) {
			return &u, true, nil
		}
	}
	return nil, false, nil
}
