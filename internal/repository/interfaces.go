package repository

import (
	"context"
	"io"
	"time"

	"github.com/dom/lost-found/internal/domain"
)

// Find* methods report absence through the boolean result, not an error.
// Mutations on a missing record return ErrNotFound.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, bool, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, bool, error)
	FindByToken(ctx context.Context, token string) (*domain.User, bool, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	SetToken(ctx context.Context, id, token string, now time.Time) error
	ClearToken(ctx context.Context, id string, now time.Time) error
	UpdateProfileFields(ctx context.Context, user *domain.User) error
}

type ProfileRepository interface {
	Find(ctx context.Context, userID string) (*domain.Profile, bool, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type NoticeRepository interface {
	Create(ctx context.Context, notice *domain.Notice) error
	Find(ctx context.Context, id string) (*domain.Notice, bool, error)
	List(ctx context.Context) ([]*domain.Notice, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Notice, error)
	// TransitionStatus moves a notice from one status to another and reports whether it did.
	TransitionStatus(ctx context.Context, id string, from, to domain.NoticeStatus, now time.Time) (bool, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, response *domain.Response) error
	ListByNotice(ctx context.Context, noticeID string) ([]*domain.Response, error)
	Exists(ctx context.Context, noticeID, responderID string) (bool, error)
	CountByNotices(ctx context.Context, noticeIDs []string) (map[string]int, error)
}

// Image is a stored binary object. Callers must close Body.
type Image struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	Open(ctx context.Context, id string) (*Image, bool, error)
	Delete(ctx context.Context, id string) error
}

type Repositories struct {
	User     UserRepository
	Profile  ProfileRepository
	Notice   NoticeRepository
	Response ResponseRepository
	Image    ImageStore
}
