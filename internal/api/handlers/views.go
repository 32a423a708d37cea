package handlers

import (
	"net/http"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/service"
)

// URLBuilder renders absolute links to served images.
type URLBuilder struct {
	// BaseURL overrides the request host when set, e.g. "https://api.example.com".
	BaseURL string
}

func (b URLBuilder) absolute(r *http.Request, path string) string {
	if b.BaseURL != "" {
		return b.BaseURL + path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + path
}

func (b URLBuilder) ProfileImage(r *http.Request, user *domain.User) *string {
	if user == nil || !user.HasProfileImage() {
		return nil
	}
	u := b.absolute(r, "/auth/profile/image/"+user.ID)
	return &u
}

func (b URLBuilder) NoticeImage(r *http.Request, notice *domain.Notice) *string {
	if notice.ImageID == "" {
		return nil
	}
	u := b.absolute(r, "/api/notices/"+notice.ID+"/image")
	return &u
}

type userResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Nickname     string          `json:"nickname"`
	ProfileImage *string         `json:"profile_image"`
	CreatedAt    time.Time       `json:"created_at"`
	Profile      *domain.Profile `json:"profile"`
}

func (b URLBuilder) user(r *http.Request, user *domain.User, profile *domain.Profile) userResponse {
	return userResponse{
		ID:           user.ID,
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Nickname:     user.Nickname,
		ProfileImage: b.ProfileImage(r, user),
		CreatedAt:    user.CreatedAt,
		Profile:      profile,
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type noticeResponse struct {
	ID             string              `json:"id"`
	Owner          string              `json:"owner"`
	OwnerNickname  string              `json:"owner_nickname"`
	OwnerEmail     string              `json:"owner_email"`
	Title          string              `json:"title"`
	Type           domain.NoticeType   `json:"type"`
	Date           string              `json:"date"`
	Venue          string              `json:"venue"`
	Contact        string              `json:"contact"`
	Description    string              `json:"description"`
	Image          *string             `json:"image"`
	Status         domain.NoticeStatus `json:"status"`
	ResponsesCount int                 `json:"responses_count"`
	CreatedAt      time.Time           `json:"created_at"`
}

type noticeDetailResponse struct {
	noticeResponse
	Responses []responseResponse `json:"responses"`
}

type responseResponse struct {
	ID                string    `json:"id"`
	Notice            string    `json:"notice"`
	Responder         string    `json:"responder"`
	ResponderNickname string    `json:"responder_nickname"`
	ResponderEmail    string    `json:"responder_email"`
	Message           string    `json:"message"`
	CreatedAt         time.Time `json:"created_at"`
}

func (b URLBuilder) notice(r *http.Request, v *service.NoticeView) noticeResponse {
	n := v.Notice
	resp := noticeResponse{
		ID:             n.ID,
		Owner:          n.OwnerID,
		Title:          n.Title,
		Type:           n.Type,
		Date:           n.Date,
		Venue:          n.Venue,
		Contact:        n.Contact,
		Description:    n.Description,
		Image:          b.NoticeImage(r, n),
		Status:         n.Status,
		ResponsesCount: v.ResponsesCount,
		CreatedAt:      n.CreatedAt,
	}
	if v.Owner != nil {
		resp.OwnerNickname = v.Owner.Nickname
		resp.OwnerEmail = v.Owner.Email
	}
	return resp
}

func (b URLBuilder) notices(r *http.Request, views []*service.NoticeView) []noticeResponse {
	out := make([]noticeResponse, 0, len(views))
	for _, v := range views {
		out = append(out, b.notice(r, v))
	}
	return out
}

func (b URLBuilder) noticeDetail(r *http.Request, v *service.NoticeView) noticeDetailResponse {
	resp := noticeDetailResponse{
		noticeResponse: b.notice(r, v),
		Responses:      make([]responseResponse, 0, len(v.Responses)),
	}
	for _, rv := range v.Responses {
		resp.Responses = append(resp.Responses, responseView(rv))
	}
	return resp
}

func responseView(rv *service.ResponseView) responseResponse {
	resp := responseResponse{
		ID:        rv.Response.ID,
		Notice:    rv.Response.NoticeID,
		Responder: rv.Response.ResponderID,
		Message:   rv.Response.Message,
		CreatedAt: rv.Response.CreatedAt,
	}
	if rv.Responder != nil {
		resp.ResponderNickname = rv.Responder.Nickname
		resp.ResponderEmail = rv.Responder.Email
	}
	return resp
}
