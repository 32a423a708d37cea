package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/dom/lost-found/internal/repository"
	"github.com/google/uuid"
)

type storedImage struct {
	filename    string
	contentType string
	data        []byte
}

type imageStore struct {
	mu     sync.RWMutex
	images map[string]storedImage
}

func NewImageStore() *imageStore {
	return &imageStore{images: make(map[string]storedImage)}
}

func (s *imageStore) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.images[id] = storedImage{filename: filename, contentType: contentType, data: data}
	s.mu.Unlock()
	return id, nil
}

func (s *imageStore) Open(ctx context.Context, id string) (*repository.Image, bool, error) {
	s.mu.RLock()
	img, ok := s.images[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return &repository.Image{
		ID:          id,
		Filename:    img.filename,
		ContentType: img.contentType,
		Size:        int64(len(img.data)),
		Body:        io.NopCloser(bytes.NewReader(img.data)),
	}, true, nil
}

func (s *imageStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.images, id)
	return nil
}
