package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dom/lost-found/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = fakeObject{
		data:        data,
		contentType: aws.ToString(in.ContentType),
		metadata:    in.Metadata,
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
	}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestImageStore_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := New(fake, "lost-found")
	ctx := context.Background()

	id, err := store.Save(ctx, "wallet.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Contains(t, fake.objects, "lost-found/images/"+id)

	img, found, err := store.Open(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	defer img.Body.Close()
	assert.Equal(t, "wallet.png", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len("png-bytes")), img.Size)
	data, err := io.ReadAll(img.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, id))
	_, found, err = store.Open(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, store.Delete(ctx, id), repository.ErrNotFound)
}

func TestImageStore_PropagatesErrors(t *testing.T) {
	fake := newFakeS3()
	fake.err = errors.New("connection refused")
	store := New(fake, "lost-found")
	ctx := context.Background()

	_, err := store.Save(ctx, "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, fake.err)

	_, found, err := store.Open(ctx, "id")
	assert.ErrorIs(t, err, fake.err)
	assert.False(t, found)

	assert.ErrorIs(t, store.Delete(ctx, "id"), fake.err)
}

func TestConnect(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var loaded awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			if err := fn(&loaded); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{}, nil
	}

	var applied s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&applied)
		}
		return &s3.Client{}
	}

	store, err := Connect(context.Background(), Options{
		Bucket:    "lost-found",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	assert.Equal(t, "us-east-1", loaded.Region)
	assert.NotNil(t, loaded.Credentials)
	require.NotNil(t, applied.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *applied.BaseEndpoint)
	assert.True(t, applied.UsePathStyle)

	_, err = Connect(context.Background(), Options{Region: "us-east-1"})
	assert.Error(t, err, "bucket is required")
}
