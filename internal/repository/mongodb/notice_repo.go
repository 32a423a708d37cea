package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/dom/lost-found/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type noticeRepository struct {
	coll *mongo.Collection
}

func NewNoticeRepository(db *mongo.Database) *noticeRepository {
	return &noticeRepository{coll: db.Collection(noticesCollection)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Create stores notice. Unknown types and malformed dates are refused before the write.
func (r *noticeRepository) Create(ctx context.Context, notice *domain.Notice) error {
	if err := notice.Validate(); err != nil {
		return err
	}
	_, err := r.coll.InsertOne(ctx, notice)
	return translateWriteError(err)
}

func (r *noticeRepository) Find(ctx context.Context, id string) (*domain.Notice, bool, error) {
	var notice domain.Notice
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&notice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &notice, true, nil
}

func (r *noticeRepository) List(ctx context.Context) ([]*domain.Notice, error) {
	return r.find(ctx, bson.D{})
}

func (r *noticeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Notice, error) {
	return r.find(ctx, bson.D{{Key: "owner_id", Value: ownerID}})
}

func (r *noticeRepository) TransitionStatus(ctx context.Context, id string, from, to domain.NoticeStatus, now time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: from}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: to}, {Key: "updated_at", Value: now}}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *noticeRepository) find(ctx context.Context, filter bson.D) ([]*domain.Notice, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	notices := make([]*domain.Notice, 0)
	if err := cur.All(ctx, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}
