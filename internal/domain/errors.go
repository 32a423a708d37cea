package domain

import "errors"

// Notice validation errors
var (
	ErrInvalidNoticeType = errors.New("invalid notice type")
	ErrInvalidNoticeDate = errors.New("invalid notice date")
)
