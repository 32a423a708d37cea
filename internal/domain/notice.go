package domain

import (
	"time"
)

type NoticeType string

const (
	NoticeTypeLost  NoticeType = "lost"
	NoticeTypeFound NoticeType = "found"
)

// IsValid checks if a notice type is valid
func (t NoticeType) IsValid() bool {
	switch t {
	case NoticeTypeLost, NoticeTypeFound:
		return true
	}
	return false
}

type NoticeStatus string

const (
	NoticeStatusActive    NoticeStatus = "active"
	NoticeStatusCompleted NoticeStatus = "completed"
)

// NoticeDateLayout is the calendar-day format of Notice.Date
const NoticeDateLayout = "2006-01-02"

// Notice is a lost or found item posted by a user
type Notice struct {
	ID          string       `json:"id" bson:"_id"`
	OwnerID     string       `json:"owner" bson:"owner_id"`
	Title       string       `json:"title" bson:"title"`
	Type        NoticeType   `json:"type" bson:"type"`
	Date        string       `json:"date" bson:"date"`
	Venue       string       `json:"venue" bson:"venue"`
	Contact     string       `json:"contact" bson:"contact"`
	Description string       `json:"description" bson:"description"`
	ImageID     string       `json:"-" bson:"image_id,omitempty"`
	Status      NoticeStatus `json:"status" bson:"status"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the notice still accepts responses
func (n *Notice) IsActive() bool {
	return n.Status == NoticeStatusActive
}

// IsOwnedBy reports whether userID posted the notice
func (n *Notice) IsOwnedBy(userID string) bool {
	return n.OwnerID == userID
}

// Response is a message left by another user on a notice
type Response struct {
	ID          string    `json:"id" bson:"_id"`
	NoticeID    string    `json:"notice" bson:"notice_id"`
	ResponderID string    `json:"responder" bson:"responder_id"`
	Message     string    `json:"message" bson:"message"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// NormalizeNoticeDate accepts a calendar day or an RFC 3339 timestamp and returns the day
func NormalizeNoticeDate(s string) (string, error) {
	if d, err := time.Parse(NoticeDateLayout, s); err == nil {
		return d.Format(NoticeDateLayout), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC().Format(NoticeDateLayout), nil
	}
	return "", ErrInvalidNoticeDate
}

// Validate checks the enumerated fields of the notice
func (n *Notice) Validate() error {
	if !n.Type.IsValid() {
		return ErrInvalidNoticeType
	}
	if _, err := time.Parse(NoticeDateLayout, n.Date); err != nil {
		return ErrInvalidNoticeDate
	}
	return nil
}
