package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
)

type noticeRepository struct {
	mu      sync.RWMutex
	notices map[string]domain.Notice
}

func NewNoticeRepository() *noticeRepository {
	return &noticeRepository{notices: make(map[string]domain.Notice)}
}

func (r *noticeRepository) Create(ctx context.Context, notice *domain.Notice) error {
	if err := notice.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notices[notice.ID]; ok {
		return repository.DuplicateKeyError{Field: "id"}
	}
	r.notices[notice.ID] = *notice
	return nil
}

func (r *noticeRepository) Find(ctx context.Context, id string) (*domain.Notice, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notices[id]
	if !ok {
		return nil, false, nil
	}
	return &n, true, nil
}

func (r *noticeRepository) List(ctx context.Context) ([]*domain.Notice, error) {
	return r.filter(func(*domain.Notice) bool { return true }), nil
}

func (r *noticeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Notice, error) {
	return r.filter(func(n *domain.Notice) bool { return n.OwnerID == ownerID }), nil
}

func (r *noticeRepository) TransitionStatus(ctx context.Context, id string, from, to domain.NoticeStatus, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notices[id]
	if !ok || n.Status != from {
		return false, nil
	}
	n.Status = to
	n.UpdatedAt = now
	r.notices[id] = n
	return true, nil
}

func (r *noticeRepository) filter(keep func(*domain.Notice) bool) []*domain.Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Notice, 0, len(r.notices))
	for _, n := range r.notices {
		if keep(&n) {
			out = append(out, &n)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Notice) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}
