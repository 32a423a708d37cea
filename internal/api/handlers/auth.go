package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/lost-found/internal/api/middleware"
	"github.com/dom/lost-found/internal/service"
)

type AuthHandler struct {
	authService    *service.AuthService
	urls           URLBuilder
	maxUploadBytes int64
}

func NewAuthHandler(authService *service.AuthService, urls URLBuilder, maxUploadBytes int64) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		urls:           urls,
		maxUploadBytes: maxUploadBytes,
	}
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput

	if isMultipart(r) {
		if err := parseForm(w, r, h.maxUploadBytes); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		input = service.RegisterInput{
			Username:        r.PostFormValue("username"),
			Nickname:        r.PostFormValue("nickname"),
			Email:           r.PostFormValue("email"),
			Password:        r.PostFormValue("password"),
			PasswordConfirm: r.PostFormValue("password_confirm"),
		}
		image, err := formImage(r, "profile_image", h.maxUploadBytes)
		if err != nil {
			h.writeFormError(w, "handlers.Register", err)
			return
		}
		input.ProfileImage = image
	} else {
		var req RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		input = service.RegisterInput{
			Username:        req.Username,
			Nickname:        req.Nickname,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		}
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, "handlers.Register", err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token: result.Token,
		User:  h.urls.user(r, result.User, result.Profile),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if isMultipart(r) {
		if err := parseForm(w, r, 0); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		req = LoginRequest{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "handlers.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  h.urls.user(r, result.User, result.Profile),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	if err := h.authService.Logout(r.Context(), user); err != nil {
		writeServiceError(w, "handlers.Logout", err)
		return
	}

	writeDetail(w, http.StatusOK, "Logged out.")
}

func (h *AuthHandler) writeFormError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, errMalformedBody) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	writeServiceError(w, op, err)
}
