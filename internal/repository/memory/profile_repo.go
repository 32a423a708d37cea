package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dom/lost-found/internal/domain"
)

type profileRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileRepository() *profileRepository {
	return &profileRepository{profiles: make(map[string]domain.Profile)}
}

func (r *profileRepository) Find(ctx context.Context, userID string) (*domain.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, false, nil
	}
	p.Skills = slices.Clone(p.Skills)
	return &p, true, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *profile
	p.Skills = slices.Clone(profile.Skills)
	if existing, ok := r.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	r.profiles[p.UserID] = p
	return nil
}
