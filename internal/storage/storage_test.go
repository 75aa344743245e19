package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalImageStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalImageStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "recipes/a/b.png", []byte("png"), "image/png"))

	data, err := os.ReadFile(filepath.Join(store.Root(), "recipes", "a", "b.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "/media/recipes/a/b.png", store.URL("recipes/a/b.png"))
	assert.Equal(t, "", store.URL(""))

	require.NoError(t, store.Delete(ctx, "recipes/a/b.png"))
	require.NoError(t, store.Delete(ctx, "recipes/a/b.png"), "deleting twice is fine")

	assert.ErrorIs(t, store.Save(ctx, "../escape.png", nil, "image/png"), ErrInvalidKey)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	args := m.Called(aws.ToString(in.Key), aws.ToString(in.ContentType), string(body))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3ImageStore(t *testing.T) {
	client := &mockS3{}
	client.On("PutObject", "recipes/x.jpg", "image/jpeg", "jpeg-bytes").Return(nil)
	client.On("DeleteObject", "recipes/x.jpg").Return(nil)

	store := &S3ImageStore{
		client: client,
		bucket: "bucket",
		urlFor: func(key string) string { return "https://bucket.example/" + key },
	}

	require.NoError(t, store.Save(context.Background(), "recipes/x.jpg", []byte("jpeg-bytes"), "image/jpeg"))
	require.NoError(t, store.Delete(context.Background(), "recipes/x.jpg"))
	assert.Equal(t, "https://bucket.example/recipes/x.jpg", store.URL("recipes/x.jpg"))
	client.AssertExpectations(t)
}
