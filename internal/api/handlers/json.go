package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/dom/lost-found/internal/service"
)

const maxJSONBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes {"detail": msg}.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeErrorMessage writes {"error": msg}.
func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFieldErrors writes {"field": ["message", ...]}.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	out := make(map[string][]string, len(fields))
	for field, msg := range fields {
		out[field] = []string{msg}
	}
	writeJSON(w, http.StatusBadRequest, out)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}

var duplicateMessages = map[string]string{
	"email":    "A user with this email already exists.",
	"username": "A user with this username already exists.",
}

// writeServiceError maps service errors to responses. Unexpected errors are
// logged under op and reported without detail.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	var dup *service.DuplicateIdentityError

	switch {
	case errors.As(err, &verr):
		writeFieldErrors(w, verr.Fields)
	case errors.As(err, &dup):
		msg, ok := duplicateMessages[dup.Field]
		if !ok {
			msg = "This value is already in use."
		}
		writeFieldErrors(w, map[string]string{dup.Field: msg})
	case errors.Is(err, service.ErrAuthFailed):
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Invalid email or password."},
		})
	case errors.Is(err, service.ErrAuthenticationFailed):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, service.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrForbidden):
		writeErrorMessage(w, http.StatusForbidden, "Only the owner can complete this notice.")
	case errors.Is(err, service.ErrNoticeInactive):
		writeErrorMessage(w, http.StatusBadRequest, "This notice is no longer active.")
	case errors.Is(err, service.ErrOwnNotice):
		writeErrorMessage(w, http.StatusBadRequest, "You cannot respond to your own notice.")
	case errors.Is(err, service.ErrAlreadyResponded):
		writeErrorMessage(w, http.StatusBadRequest, "You have already responded to this notice.")
	case errors.Is(err, service.ErrNoticeCompleted):
		writeErrorMessage(w, http.StatusBadRequest, "Notice is already completed.")
	default:
		log.Printf("ERROR [%s] %v", op, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}
