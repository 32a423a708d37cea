package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	return translateWriteError(err)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, bool, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *userRepository) FindByToken(ctx context.Context, token string) (*domain.User, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	return r.findOne(ctx, bson.D{{Key: "token", Value: token}})
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	var users []*domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *userRepository) SetToken(ctx context.Context, id, token string, now time.Time) error {
	return r.updateByID(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{{Key: "token", Value: token}, {Key: "updated_at", Value: now}}},
	})
}

func (r *userRepository) ClearToken(ctx context.Context, id string, now time.Time) error {
	return r.updateByID(ctx, id, bson.D{
		{Key: "$unset", Value: bson.D{{Key: "token", Value: ""}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	})
}

func (r *userRepository) UpdateProfileFields(ctx context.Context, user *domain.User) error {
	set := bson.D{
		{Key: "nickname", Value: user.Nickname},
		{Key: "updated_at", Value: user.UpdatedAt},
	}
	update := bson.D{}
	if user.ProfileImageID != "" {
		set = append(set, bson.E{Key: "profile_image_id", Value: user.ProfileImageID})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "profile_image_id", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})
	return r.updateByID(ctx, user.ID, update)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, bool, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) updateByID(ctx context.Context, id string, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return translateWriteError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
