package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dom/lost-found/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection     = "users"
	profilesCollection  = "profiles"
	noticesCollection   = "notices"
	responsesCollection = "responses"
	imagesBucket        = "images"
)

// Index names double as the logical field reported on duplicate-key errors.
const (
	indexUniqueEmail    = "uniq_email"
	indexUniqueUsername = "uniq_username"
	indexUniqueToken    = "uniq_token"
	indexUniqueResponse = "uniq_response"
)

// Store owns the MongoDB client. It is created once at startup and closed at shutdown.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, verifies the connection and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the repositories rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUniqueEmail)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUniqueUsername)},
			{
				Keys: bson.D{{Key: "token", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName(indexUniqueToken).
					SetPartialFilterExpression(bson.D{{Key: "token", Value: bson.D{{Key: "$exists", Value: true}}}}),
			},
		},
		noticesCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		responsesCollection: {
			{
				Keys:    bson.D{{Key: "notice_id", Value: 1}, {Key: "responder_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(indexUniqueResponse),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		User:     NewUserRepository(s.db),
		Profile:  NewProfileRepository(s.db),
		Notice:   NewNoticeRepository(s.db),
		Response: NewResponseRepository(s.db),
		Image:    NewImageStore(s.db),
	}
}

// duplicateKeyField maps a unique index violation to the logical field it protects.
// ok is false when err is not a duplicate-key error.
func duplicateKeyField(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}

	msg := err.Error()
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			msg = e.Message
		}
	}

	switch {
	case strings.Contains(msg, indexUniqueEmail):
		return "email", true
	case strings.Contains(msg, indexUniqueUsername):
		return "username", true
	case strings.Contains(msg, indexUniqueToken):
		return "token", true
	case strings.Contains(msg, indexUniqueResponse):
		return "response", true
	case strings.Contains(msg, "_id_"):
		return "id", true
	}
	return "", true
}

func translateWriteError(err error) error {
	if field, ok := duplicateKeyField(err); ok {
		return repository.DuplicateKeyError{Field: field}
	}
	return err
}
