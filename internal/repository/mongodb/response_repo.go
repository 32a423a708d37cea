package mongodb

import (
	"context"
	"errors"

	"github.com/dom/lost-found/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type responseRepository struct {
	coll *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *responseRepository {
	return &responseRepository{coll: db.Collection(responsesCollection)}
}

func (r *responseRepository) Create(ctx context.Context, response *domain.Response) error {
	_, err := r.coll.InsertOne(ctx, response)
	return translateWriteError(err)
}

func (r *responseRepository) ListByNotice(ctx context.Context, noticeID string) ([]*domain.Response, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "notice_id", Value: noticeID}}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	responses := make([]*domain.Response, 0)
	if err := cur.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepository) Exists(ctx context.Context, noticeID, responderID string) (bool, error) {
	err := r.coll.FindOne(ctx,
		bson.D{{Key: "notice_id", Value: noticeID}, {Key: "responder_id", Value: responderID}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *responseRepository) CountByNotices(ctx context.Context, noticeIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(noticeIDs))
	for _, id := range noticeIDs {
		counts[id] = 0
	}
	if len(noticeIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "notice_id", Value: bson.D{{Key: "$in", Value: noticeIDs}}}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$notice_id"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		NoticeID string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.NoticeID] = row.Count
	}
	return counts, nil
}
