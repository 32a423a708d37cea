package mongodb

import (
	"context"
	"errors"

	"github.com/dom/lost-found/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type profileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *profileRepository {
	return &profileRepository{coll: db.Collection(profilesCollection)}
}

func (r *profileRepository) Find(ctx context.Context, userID string) (*domain.Profile, bool, error) {
	var profile domain.Profile
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	return &profile, true, nil
}

// Upsert replaces the stored profile, keeping the original creation time.
func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	set := bson.D{
		{Key: "bio", Value: profile.Bio},
		{Key: "phone", Value: profile.Phone},
		{Key: "location", Value: profile.Location},
		{Key: "website", Value: profile.Website},
		{Key: "github_username", Value: profile.GithubUsername},
		{Key: "linkedin_username", Value: profile.LinkedinUsername},
		{Key: "twitter_username", Value: profile.TwitterUsername},
		{Key: "skills", Value: profile.Skills},
		{Key: "education", Value: profile.Education},
		{Key: "company", Value: profile.Company},
		{Key: "job_title", Value: profile.JobTitle},
		{Key: "completion_percentage", Value: profile.CompletionPercentage},
		{Key: "profile_complete", Value: profile.ProfileComplete},
		{Key: "updated_at", Value: profile.UpdatedAt},
	}
	update := bson.D{
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: profile.CreatedAt}}},
	}
	if profile.ExperienceYears != nil {
		set = append(set, bson.E{Key: "experience_years", Value: *profile.ExperienceYears})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "experience_years", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	_, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: profile.UserID}}, update, options.Update().SetUpsert(true))
	return err
}
