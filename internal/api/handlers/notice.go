package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/dom/lost-found/internal/api/middleware"
	"github.com/dom/lost-found/internal/service"
	"github.com/go-chi/chi/v5"
)

type NoticeHandler struct {
	noticeService  *service.NoticeService
	urls           URLBuilder
	maxUploadBytes int64
}

func NewNoticeHandler(noticeService *service.NoticeService, urls URLBuilder, maxUploadBytes int64) *NoticeHandler {
	return &NoticeHandler{
		noticeService:  noticeService,
		urls:           urls,
		maxUploadBytes: maxUploadBytes,
	}
}

type CreateNoticeRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Venue       string `json:"venue"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
}

type RespondRequest struct {
	Message string `json:"message"`
}

func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.noticeService.List(r.Context())
	if err != nil {
		writeServiceError(w, "handlers.ListNotices", err)
		return
	}
	writeJSON(w, http.StatusOK, h.urls.notices(r, views))
}

func (h *NoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var input service.CreateNoticeInput
	if isMultipart(r) {
		if err := parseForm(w, r, h.maxUploadBytes); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		input = service.CreateNoticeInput{
			Title:       r.PostFormValue("title"),
			Type:        r.PostFormValue("type"),
			Date:        r.PostFormValue("date"),
			Venue:       r.PostFormValue("venue"),
			Contact:     r.PostFormValue("contact"),
			Description: r.PostFormValue("description"),
		}
		image, err := formImage(r, "image", h.maxUploadBytes)
		if err != nil {
			if errors.Is(err, errMalformedBody) {
				writeDetail(w, http.StatusBadRequest, "Malformed request body.")
				return
			}
			writeServiceError(w, "handlers.CreateNotice", err)
			return
		}
		input.Image = image
	} else {
		var req CreateNoticeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		input = service.CreateNoticeInput{
			Title:       req.Title,
			Type:        req.Type,
			Date:        req.Date,
			Venue:       req.Venue,
			Contact:     req.Contact,
			Description: req.Description,
		}
	}

	view, err := h.noticeService.Create(r.Context(), user, input)
	if err != nil {
		writeServiceError(w, "handlers.CreateNotice", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.urls.notice(r, view))
}

func (h *NoticeHandler) MyNotices(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	views, err := h.noticeService.ListByOwner(r.Context(), user)
	if err != nil {
		writeServiceError(w, "handlers.MyNotices", err)
		return
	}
	writeJSON(w, http.StatusOK, h.urls.notices(r, views))
}

func (h *NoticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.noticeService.Get(r.Context(), chi.URLParam(r, "noticeID"))
	if err != nil {
		writeServiceError(w, "handlers.GetNotice", err)
		return
	}
	writeJSON(w, http.StatusOK, h.urls.noticeDetail(r, view))
}

func (h *NoticeHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req RespondRequest
	if isMultipart(r) {
		if err := parseForm(w, r, 0); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		req.Message = r.PostFormValue("message")
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	rv, err := h.noticeService.Respond(r.Context(), user, chi.URLParam(r, "noticeID"), req.Message)
	if err != nil {
		writeServiceError(w, "handlers.RespondToNotice", err)
		return
	}
	writeJSON(w, http.StatusCreated, responseView(rv))
}

func (h *NoticeHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	view, err := h.noticeService.Complete(r.Context(), user, chi.URLParam(r, "noticeID"))
	if err != nil {
		writeServiceError(w, "handlers.CompleteNotice", err)
		return
	}
	writeJSON(w, http.StatusOK, h.urls.noticeDetail(r, view))
}

func (h *NoticeHandler) Image(w http.ResponseWriter, r *http.Request) {
	noticeID := chi.URLParam(r, "noticeID")

	img, err := h.noticeService.Image(r.Context(), noticeID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR [handlers.NoticeImage] failed to open image for notice %s: %v", noticeID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer img.Body.Close()

	serveImage(w, img.ContentType, img.Size, noticeID+"_image", img.Body)
}
