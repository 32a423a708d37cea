package service

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
)

const maxSkillLength = 50

type ProfileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	images   repository.ImageStore
}

func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository, images repository.ImageStore) *ProfileService {
	return &ProfileService{
		users:    users,
		profiles: profiles,
		images:   images,
	}
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	Nickname     *string
	ProfileImage *ImageUpload

	Bio              *string
	Phone            *string
	Location         *string
	Website          *string
	GithubUsername   *string
	LinkedinUsername *string
	TwitterUsername  *string
	Skills           *[]string
	ExperienceYears  *int
	Education        *string
	Company          *string
	JobTitle         *string
}

type textLimit struct {
	field string
	value *string
	max   int
}

func (in UpdateProfileInput) textLimits() []textLimit {
	return []textLimit{
		{"nickname", in.Nickname, maxNicknameLength},
		{"bio", in.Bio, 500},
		{"phone", in.Phone, 20},
		{"location", in.Location, 100},
		{"website", in.Website, 200},
		{"github_username", in.GithubUsername, 100},
		{"linkedin_username", in.LinkedinUsername, 100},
		{"twitter_username", in.TwitterUsername, 100},
		{"education", in.Education, 200},
		{"company", in.Company, 100},
		{"job_title", in.JobTitle, 100},
	}
}

func (in UpdateProfileInput) validate() error {
	errs := fieldErrors{}
	for _, l := range in.textLimits() {
		if l.value != nil && utf8.RuneCountInString(*l.value) > l.max {
			errs.add(l.field, fmt.Sprintf("Ensure this field has no more than %d characters.", l.max))
		}
	}
	if in.Skills != nil {
		for _, skill := range *in.Skills {
			if utf8.RuneCountInString(skill) > maxSkillLength {
				errs.add("skills", fmt.Sprintf("Ensure each skill has no more than %d characters.", maxSkillLength))
			}
		}
	}
	if in.ExperienceYears != nil && *in.ExperienceYears < 0 {
		errs.add("experience_years", "Ensure this value is greater than or equal to 0.")
	}
	return errs.err()
}

func (in UpdateProfileInput) applyTo(p *domain.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Bio, in.Bio)
	set(&p.Phone, in.Phone)
	set(&p.Location, in.Location)
	set(&p.Website, in.Website)
	set(&p.GithubUsername, in.GithubUsername)
	set(&p.LinkedinUsername, in.LinkedinUsername)
	set(&p.TwitterUsername, in.TwitterUsername)
	set(&p.Education, in.Education)
	set(&p.Company, in.Company)
	set(&p.JobTitle, in.JobTitle)
	if in.Skills != nil {
		p.Skills = append([]string{}, (*in.Skills)...)
	}
	if in.ExperienceYears != nil {
		years := *in.ExperienceYears
		p.ExperienceYears = &years
	}
}

// GetProfile returns the stored profile of user, or nil when none exists yet.
func (s *ProfileService) GetProfile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	profile, found, err := s.profiles.Find(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return profile, nil
}

// Detail returns the profile of user with a freshly computed completion score,
// creating an empty profile on first access.
func (s *ProfileService) Detail(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	profile, existed, err := s.loadOrNew(ctx, user)
	if err != nil {
		return nil, err
	}

	before := profile.CompletionPercentage
	profile.CalculateCompletion(user)
	if !existed || before != profile.CompletionPercentage {
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// Update applies a partial update to the user's nickname, image and profile fields.
func (s *ProfileService) Update(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, *domain.Profile, error) {
	if err := input.validate(); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	updated := *user
	oldImageID := user.ProfileImageID

	if input.Nickname != nil {
		updated.Nickname = *input.Nickname
	}
	if input.ProfileImage != nil {
		id, err := s.images.Save(ctx, input.ProfileImage.Filename, input.ProfileImage.ContentType, input.ProfileImage.Body)
		if err != nil {
			return nil, nil, err
		}
		updated.ProfileImageID = id
	}
	updated.UpdatedAt = now

	if err := s.users.UpdateProfileFields(ctx, &updated); err != nil {
		if updated.ProfileImageID != oldImageID {
			s.discardImage(ctx, updated.ProfileImageID)
		}
		return nil, nil, err
	}
	if updated.ProfileImageID != oldImageID && oldImageID != "" {
		s.discardImage(ctx, oldImageID)
	}

	profile, _, err := s.loadOrNew(ctx, &updated)
	if err != nil {
		return nil, nil, err
	}
	input.applyTo(profile)
	profile.CalculateCompletion(&updated)
	profile.UpdatedAt = now
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, nil, err
	}

	return &updated, profile, nil
}

// ProfileImage opens the profile image of the user with userID.
func (s *ProfileService) ProfileImage(ctx context.Context, userID string) (*domain.User, *repository.Image, error) {
	user, found, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !found || !user.HasProfileImage() {
		return nil, nil, ErrNotFound
	}

	img, found, err := s.images.Open(ctx, user.ProfileImageID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrNotFound
	}
	return user, img, nil
}

// loadOrNew returns the stored profile or an unsaved empty one, reporting which.
func (s *ProfileService) loadOrNew(ctx context.Context, user *domain.User) (*domain.Profile, bool, error) {
	profile, found, err := s.profiles.Find(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return domain.NewProfile(user.ID, time.Now().UTC()), false, nil
	}
	return profile, true, nil
}

func (s *ProfileService) discardImage(ctx context.Context, id string) {
	if err := s.images.Delete(ctx, id); err != nil {
		log.Printf("ERROR [service.ProfileService] failed to delete image %s: %v", id, err)
	}
}
