package domain

import "time"

// ProfileCompleteThreshold is the completion percentage at which a profile counts as complete
const ProfileCompleteThreshold = 80

// profileTrackedFields is the number of fields counted by CompletionPercentage
const profileTrackedFields = 14

// Profile stores the optional, self-described details of a user
type Profile struct {
	UserID           string   `json:"-" bson:"_id"`
	Bio              string   `json:"bio" bson:"bio"`
	Phone            string   `json:"phone" bson:"phone"`
	Location         string   `json:"location" bson:"location"`
	Website          string   `json:"website" bson:"website"`
	GithubUsername   string   `json:"github_username" bson:"github_username"`
	LinkedinUsername string   `json:"linkedin_username" bson:"linkedin_username"`
	TwitterUsername  string   `json:"twitter_username" bson:"twitter_username"`
	Skills           []string `json:"skills" bson:"skills"`
	ExperienceYears  *int     `json:"experience_years" bson:"experience_years,omitempty"`
	Education        string   `json:"education" bson:"education"`
	Company          string   `json:"company" bson:"company"`
	JobTitle         string   `json:"job_title" bson:"job_title"`

	CompletionPercentage int       `json:"completion_percentage" bson:"completion_percentage"`
	ProfileComplete      bool      `json:"profile_complete" bson:"profile_complete"`
	CreatedAt            time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" bson:"updated_at"`
}

// NewProfile creates an empty profile for a user
func NewProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:    userID,
		Skills:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CalculateCompletion scores the profile against the owning user and stores the result.
// Nickname and profile image live on the user record but count towards completion.
func (p *Profile) CalculateCompletion(user *User) int {
	filled := 0
	count := func(ok bool) {
		if ok {
			filled++
		}
	}

	if user != nil {
		count(user.Nickname != "")
		count(user.HasProfileImage())
	}
	count(p.Bio != "")
	count(p.Phone != "")
	count(p.Location != "")
	count(p.Website != "")
	count(p.GithubUsername != "")
	count(p.LinkedinUsername != "")
	count(p.TwitterUsername != "")
	count(len(p.Skills) > 0)
	count(p.ExperienceYears != nil)
	count(p.Education != "")
	count(p.Company != "")
	count(p.JobTitle != "")

	p.CompletionPercentage = filled * 100 / profileTrackedFields
	p.ProfileComplete = p.CompletionPercentage >= ProfileCompleteThreshold
	return p.CompletionPercentage
}
