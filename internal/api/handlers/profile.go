package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dom/lost-found/internal/api/middleware"
	"github.com/dom/lost-found/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	urls           URLBuilder
	maxUploadBytes int64
}

func NewProfileHandler(profileService *service.ProfileService, urls URLBuilder, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		urls:           urls,
		maxUploadBytes: maxUploadBytes,
	}
}

// UpdateProfileRequest is the JSON body of PATCH /auth/profile; absent fields are left unchanged.
type UpdateProfileRequest struct {
	Nickname         *string   `json:"nickname"`
	Bio              *string   `json:"bio"`
	Phone            *string   `json:"phone"`
	Location         *string   `json:"location"`
	Website          *string   `json:"website"`
	GithubUsername   *string   `json:"github_username"`
	LinkedinUsername *string   `json:"linkedin_username"`
	TwitterUsername  *string   `json:"twitter_username"`
	Skills           *[]string `json:"skills"`
	ExperienceYears  *int      `json:"experience_years"`
	Education        *string   `json:"education"`
	Company          *string   `json:"company"`
	JobTitle         *string   `json:"job_title"`
}

func (req UpdateProfileRequest) input() service.UpdateProfileInput {
	return service.UpdateProfileInput{
		Nickname:         req.Nickname,
		Bio:              req.Bio,
		Phone:            req.Phone,
		Location:         req.Location,
		Website:          req.Website,
		GithubUsername:   req.GithubUsername,
		LinkedinUsername: req.LinkedinUsername,
		TwitterUsername:  req.TwitterUsername,
		Skills:           req.Skills,
		ExperienceYears:  req.ExperienceYears,
		Education:        req.Education,
		Company:          req.Company,
		JobTitle:         req.JobTitle,
	}
}

type profileDetailResponse struct {
	Profile              any  `json:"profile"`
	CompletionPercentage int  `json:"completion_percentage"`
	ProfileComplete      bool `json:"profile_complete"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	profile, err := h.profileService.GetProfile(r.Context(), user)
	if err != nil {
		writeServiceError(w, "handlers.GetProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, h.urls.user(r, user, profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var input service.UpdateProfileInput
	if isMultipart(r) {
		if err := parseForm(w, r, h.maxUploadBytes); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		parsed, err := h.formInput(r)
		if err != nil {
			if errors.Is(err, errMalformedBody) {
				writeDetail(w, http.StatusBadRequest, "Malformed request body.")
				return
			}
			writeServiceError(w, "handlers.UpdateProfile", err)
			return
		}
		input = parsed
	} else {
		var req UpdateProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		input = req.input()
	}

	updated, profile, err := h.profileService.Update(r.Context(), user, input)
	if err != nil {
		writeServiceError(w, "handlers.UpdateProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, h.urls.user(r, updated, profile))
}

func (h *ProfileHandler) formInput(r *http.Request) (service.UpdateProfileInput, error) {
	years, err := formInt(r, "experience_years")
	if err != nil {
		return service.UpdateProfileInput{}, err
	}
	image, err := formImage(r, "profile_image", h.maxUploadBytes)
	if err != nil {
		return service.UpdateProfileInput{}, err
	}

	return service.UpdateProfileInput{
		Nickname:         formString(r, "nickname"),
		ProfileImage:     image,
		Bio:              formString(r, "bio"),
		Phone:            formString(r, "phone"),
		Location:         formString(r, "location"),
		Website:          formString(r, "website"),
		GithubUsername:   formString(r, "github_username"),
		LinkedinUsername: formString(r, "linkedin_username"),
		TwitterUsername:  formString(r, "twitter_username"),
		Skills:           formList(r, "skills"),
		ExperienceYears:  years,
		Education:        formString(r, "education"),
		Company:          formString(r, "company"),
		JobTitle:         formString(r, "job_title"),
	}, nil
}

func (h *ProfileHandler) Detail(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	profile, err := h.profileService.Detail(r.Context(), user)
	if err != nil {
		writeServiceError(w, "handlers.ProfileDetail", err)
		return
	}

	writeJSON(w, http.StatusOK, profileDetailResponse{
		Profile:              profile,
		CompletionPercentage: profile.CompletionPercentage,
		ProfileComplete:      profile.ProfileComplete,
	})
}

func (h *ProfileHandler) Image(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, img, err := h.profileService.ProfileImage(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "Profile image not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR [handlers.ProfileImage] failed to open image for user %s: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer img.Body.Close()

	serveImage(w, img.ContentType, img.Size, fmt.Sprintf("%s_profile", user.Username), img.Body)
}

// serveImage streams an image body inline.
func serveImage(w http.ResponseWriter, contentType string, size int64, name string, body io.Reader) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if size > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(size))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("ERROR [handlers.serveImage] failed to stream %s: %v", name, err)
	}
}
