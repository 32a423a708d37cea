package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"github.com/oklog/ulid/v2"
)

const maxNoticeTextLength = 255

// Events pushed to connected clients.
const (
	EventNoticeResponse  = "NOTICE_RESPONSE"
	EventNoticeCompleted = "NOTICE_COMPLETED"
)

// Notifier delivers an event to every live connection of a user.
type Notifier interface {
	Notify(userID, event string, payload any)
}

type NoticeService struct {
	notices   repository.NoticeRepository
	responses repository.ResponseRepository
	users     repository.UserRepository
	images    repository.ImageStore
	notifier  Notifier
}

func NewNoticeService(notices repository.NoticeRepository, responses repository.ResponseRepository, users repository.UserRepository, images repository.ImageStore, notifier Notifier) *NoticeService {
	return &NoticeService{
		notices:   notices,
		responses: responses,
		users:     users,
		images:    images,
		notifier:  notifier,
	}
}

type CreateNoticeInput struct {
	Title       string
	Type        string
	Date        string
	Venue       string
	Contact     string
	Description string
	Image       *ImageUpload
}

// NoticeView is a notice joined with its owner and response data.
// Responses is only populated by Get and Complete.
type NoticeView struct {
	Notice         *domain.Notice
	Owner          *domain.User
	ResponsesCount int
	Responses      []*ResponseView
}

type ResponseView struct {
	Response  *domain.Response
	Responder *domain.User
}

// NoticeResponsePayload is sent to a notice owner when someone responds.
type NoticeResponsePayload struct {
	NoticeID          string `json:"noticeId"`
	NoticeTitle       string `json:"noticeTitle"`
	ResponseID        string `json:"responseId"`
	ResponderID       string `json:"responderId"`
	ResponderNickname string `json:"responderNickname"`
	Message           string `json:"message"`
}

// NoticeCompletedPayload is sent to responders when the owner completes a notice.
type NoticeCompletedPayload struct {
	NoticeID    string `json:"noticeId"`
	NoticeTitle string `json:"noticeTitle"`
}

// idEntropy keeps ids created within the same millisecond in creation order.
var idEntropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

func newID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), idEntropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (in *CreateNoticeInput) normalize() (*domain.Notice, error) {
	errs := fieldErrors{}

	required := func(field, value string, max int) string {
		value = strings.TrimSpace(value)
		switch {
		case value == "":
			errs.add(field, "This field is required.")
		case max > 0 && utf8.RuneCountInString(value) > max:
			errs.add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
		}
		return value
	}

	n := &domain.Notice{
		Title:       required("title", in.Title, maxNoticeTextLength),
		Venue:       required("venue", in.Venue, maxNoticeTextLength),
		Contact:     required("contact", in.Contact, maxNoticeTextLength),
		Description: required("description", in.Description, 0),
		Type:        domain.NoticeType(strings.ToLower(strings.TrimSpace(in.Type))),
		Status:      domain.NoticeStatusActive,
	}

	if in.Type == "" {
		errs.add("type", "This field is required.")
	} else if !n.Type.IsValid() {
		errs.add("type", fmt.Sprintf("%q is not a valid choice.", in.Type))
	}

	if strings.TrimSpace(in.Date) == "" {
		errs.add("date", "This field is required.")
	} else if day, err := domain.NormalizeNoticeDate(strings.TrimSpace(in.Date)); err != nil {
		errs.add("date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	} else {
		n.Date = day
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return n, nil
}

// Create posts a new active notice owned by owner.
func (s *NoticeService) Create(ctx context.Context, owner *domain.User, input CreateNoticeInput) (*NoticeView, error) {
	notice, err := input.normalize()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if notice.ID, err = newID(now); err != nil {
		return nil, err
	}
	notice.OwnerID = owner.ID
	notice.CreatedAt = now
	notice.UpdatedAt = now

	if input.Image != nil {
		imageID, err := s.images.Save(ctx, input.Image.Filename, input.Image.ContentType, input.Image.Body)
		if err != nil {
			return nil, err
		}
		notice.ImageID = imageID
	}

	if err := s.notices.Create(ctx, notice); err != nil {
		if notice.ImageID != "" {
			if delErr := s.images.Delete(ctx, notice.ImageID); delErr != nil {
				log.Printf("ERROR [service.NoticeService.Create] failed to remove orphaned image %s: %v", notice.ImageID, delErr)
			}
		}
		return nil, err
	}

	return &NoticeView{Notice: notice, Owner: owner}, nil
}

// List returns every notice, newest first.
func (s *NoticeService) List(ctx context.Context) ([]*NoticeView, error) {
	notices, err := s.notices.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, notices)
}

// ListByOwner returns the notices posted by owner, newest first.
func (s *NoticeService) ListByOwner(ctx context.Context, owner *domain.User) ([]*NoticeView, error) {
	notices, err := s.notices.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, notices)
}

// Get returns a notice with its responses.
func (s *NoticeService) Get(ctx context.Context, id string) (*NoticeView, error) {
	notice, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, notice)
}

// Respond records a response from user. The notice must be active, not owned by
// user, and not already answered by user.
func (s *NoticeService) Respond(ctx context.Context, user *domain.User, noticeID, message string) (*ResponseView, error) {
	notice, err := s.find(ctx, noticeID)
	if err != nil {
		return nil, err
	}

	if !notice.IsActive() {
		return nil, ErrNoticeInactive
	}
	if notice.IsOwnedBy(user.ID) {
		return nil, ErrOwnNotice
	}
	exists, err := s.responses.Exists(ctx, notice.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyResponded
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "This field is required."}}
	}

	now := time.Now().UTC()
	id, err := newID(now)
	if err != nil {
		return nil, err
	}
	response := &domain.Response{
		ID:          id,
		NoticeID:    notice.ID,
		ResponderID: user.ID,
		Message:     message,
		CreatedAt:   now,
	}
	if err := s.responses.Create(ctx, response); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrAlreadyResponded
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(notice.OwnerID, EventNoticeResponse, NoticeResponsePayload{
			NoticeID:          notice.ID,
			NoticeTitle:       notice.Title,
			ResponseID:        response.ID,
			ResponderID:       user.ID,
			ResponderNickname: user.Nickname,
			Message:           response.Message,
		})
	}

	return &ResponseView{Response: response, Responder: user}, nil
}

// Complete marks a notice completed. Only its owner may do so, and only once.
func (s *NoticeService) Complete(ctx context.Context, user *domain.User, noticeID string) (*NoticeView, error) {
	notice, err := s.find(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	if !notice.IsOwnedBy(user.ID) {
		return nil, ErrForbidden
	}
	if !notice.IsActive() {
		return nil, ErrNoticeCompleted
	}

	now := time.Now().UTC()
	changed, err := s.notices.TransitionStatus(ctx, notice.ID, domain.NoticeStatusActive, domain.NoticeStatusCompleted, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrNoticeCompleted
	}
	notice.Status = domain.NoticeStatusCompleted
	notice.UpdatedAt = now

	view, err := s.detail(ctx, notice)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		payload := NoticeCompletedPayload{NoticeID: notice.ID, NoticeTitle: notice.Title}
		for _, r := range view.Responses {
			s.notifier.Notify(r.Response.ResponderID, EventNoticeCompleted, payload)
		}
	}
	return view, nil
}

// Image opens the image attached to a notice.
func (s *NoticeService) Image(ctx context.Context, noticeID string) (*repository.Image, error) {
	notice, err := s.find(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	if notice.ImageID == "" {
		return nil, ErrNotFound
	}
	img, found, err := s.images.Open(ctx, notice.ImageID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return img, nil
}

func (s *NoticeService) find(ctx context.Context, id string) (*domain.Notice, error) {
	notice, found, err := s.notices.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return notice, nil
}

func (s *NoticeService) detail(ctx context.Context, notice *domain.Notice) (*NoticeView, error) {
	responses, err := s.responses.ListByNotice(ctx, notice.ID)
	if err != nil {
		return nil, err
	}

	ids := []string{notice.OwnerID}
	for _, r := range responses {
		ids = append(ids, r.ResponderID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &NoticeView{
		Notice:         notice,
		Owner:          users[notice.OwnerID],
		ResponsesCount: len(responses),
		Responses:      make([]*ResponseView, 0, len(responses)),
	}
	for _, r := range responses {
		view.Responses = append(view.Responses, &ResponseView{Response: r, Responder: users[r.ResponderID]})
	}
	return view, nil
}

func (s *NoticeService) summarize(ctx context.Context, notices []*domain.Notice) ([]*NoticeView, error) {
	views := make([]*NoticeView, 0, len(notices))
	if len(notices) == 0 {
		return views, nil
	}

	noticeIDs := make([]string, 0, len(notices))
	ownerIDs := make([]string, 0, len(notices))
	for _, n := range notices {
		noticeIDs = append(noticeIDs, n.ID)
		ownerIDs = append(ownerIDs, n.OwnerID)
	}

	counts, err := s.responses.CountByNotices(ctx, noticeIDs)
	if err != nil {
		return nil, err
	}
	owners, err := s.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	for _, n := range notices {
		views = append(views, &NoticeView{
			Notice:         n,
			Owner:          owners[n.OwnerID],
			ResponsesCount: counts[n.ID],
		})
	}
	return views, nil
}
