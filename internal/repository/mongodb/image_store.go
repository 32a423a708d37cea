package mongodb

import (
	"context"
	"errors"
	"io"

	"github.com/dom/lost-found/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// imageStore keeps uploaded images in a GridFS bucket. File ids are ObjectID hex strings.
type imageStore struct {
	db *mongo.Database
}

func NewImageStore(db *mongo.Database) *imageStore {
	return &imageStore{db: db}
}

type imageMetadata struct {
	ContentType string `bson:"content_type"`
}

func (s *imageStore) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(imageMetadata{ContentType: contentType})
	id, err := bucket.UploadFromStream(filename, body, opts)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (s *imageStore) Open(ctx context.Context, id string) (*repository.Image, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, nil
	}

	bucket, err := s.bucket(ctx)
	if err != nil {
		return nil, false, err
	}

	stream, err := bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	file := stream.GetFile()
	img := &repository.Image{
		ID:          id,
		Filename:    file.Name,
		ContentType: "application/octet-stream",
		Size:        file.Length,
		Body:        stream,
	}
	if file.Metadata != nil {
		var meta imageMetadata
		if err := bson.Unmarshal(file.Metadata, &meta); err == nil && meta.ContentType != "" {
			img.ContentType = meta.ContentType
		}
	}
	return img, true, nil
}

func (s *imageStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	bucket, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := bucket.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// bucket returns a handle carrying ctx's deadline.
func (s *imageStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(imagesBucket))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}
