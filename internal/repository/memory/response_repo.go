package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
)

type responseRepository struct {
	mu        sync.RWMutex
	responses []domain.Response
}

func NewResponseRepository() *responseRepository {
	return &responseRepository{}
}

func (r *responseRepository) Create(ctx context.Context, response *domain.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.responses {
		if existing.NoticeID == response.NoticeID && existing.ResponderID == response.ResponderID {
			return repository.DuplicateKeyError{Field: "response"}
		}
	}
	r.responses = append(r.responses, *response)
	return nil
}

func (r *responseRepository) ListByNotice(ctx context.Context, noticeID string) ([]*domain.Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Response, 0)
	for _, resp := range r.responses {
		if resp.NoticeID == noticeID {
			out = append(out, &resp)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Response) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

func (r *responseRepository) Exists(ctx context.Context, noticeID, responderID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, resp := range r.responses {
		if resp.NoticeID == noticeID && resp.ResponderID == responderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *responseRepository) CountByNotices(ctx context.Context, noticeIDs []string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(noticeIDs))
	for _, id := range noticeIDs {
		counts[id] = 0
	}
	for _, resp := range r.responses {
		if _, ok := counts[resp.NoticeID]; ok {
			counts[resp.NoticeID]++
		}
	}
	return counts, nil
}
