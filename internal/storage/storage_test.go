package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "recipes/a.png", "image/png", []byte("png")))

	data, err := os.ReadFile(filepath.Join(root, "recipes", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "/media/recipes/a.png", store.URL("recipes/a.png"))
	assert.Equal(t, "", store.URL(""))

	require.NoError(t, store.Delete(ctx, "recipes/a.png"))
	_, err = os.Stat(filepath.Join(root, "recipes", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "recipes/a.png"))
}

func TestLocalStoreKeepsKeysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "../../escape.png", "image/png", []byte("x")))
	_, err = os.Stat(filepath.Join(root, "escape.png"))
	assert.NoError(t, err)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(params.Body)
	args := m.Called(*params.Bucket, *params.Key, *params.ContentType, string(body))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(*params.Bucket, *params.Key)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3Store(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", "images", "recipes/a.jpg", "image/jpeg", "jpg").Return(nil)
	client.On("DeleteObject", "images", "recipes/a.jpg").Return(nil)

	store := NewS3StoreWithClient(client, "images", "eu-west-1")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "recipes/a.jpg", "image/jpeg", []byte("jpg")))
	require.NoError(t, store.Delete(ctx, "recipes/a.jpg"))
	assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/recipes/a.jpg", store.URL("recipes/a.jpg"))
	client.AssertExpectations(t)
}
