package mongodb_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/dom/lost-found/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageStore_RoundTrip(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	data := []byte("\x89PNG\r\n\x1a\nfake image body")
	id, err := repos.Image.Save(ctx, "photo.png", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	img, found, err := repos.Image.Open(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	defer img.Body.Close()

	assert.Equal(t, "photo.png", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len(data)), img.Size)
	got, err := io.ReadAll(img.Body)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, repos.Image.Delete(ctx, id))
	_, found, err = repos.Image.Open(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, repos.Image.Delete(ctx, id), repository.ErrNotFound)
}

func TestImageStore_UnknownIDs(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	for _, id := range []string{"not-an-object-id", "5f1d7a3b9c2e4a0012345678"} {
		_, found, err := repos.Image.Open(ctx, id)
		require.NoError(t, err, id)
		assert.False(t, found, id)
	}
}
