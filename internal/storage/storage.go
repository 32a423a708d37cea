// Package storage opens the configured persistence backends.
package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/dom/lost-found/internal/config"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/repository/mongodb"
	"github.com/dom/lost-found/internal/repository/s3store"
)

// Storage bundles the repositories with the client that must be closed at shutdown.
type Storage struct {
	Repos *repository.Repositories
	store *mongodb.Store
}

// Open connects to MongoDB and, when configured, swaps the GridFS image store for S3.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	store, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	repos := mongodb.NewRepositories(store)
	if cfg.ImageBackend == config.ImageBackendS3 {
		images, err := s3store.Connect(ctx, s3store.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			_ = store.Close(context.Background())
			return nil, fmt.Errorf("open image store: %w", err)
		}
		repos.Image = images
	}
	log.Printf("storage: mongodb database %q, %s images", cfg.MongoDatabase, cfg.ImageBackend)

	return &Storage{Repos: repos, store: store}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
