package services

import (
	"context"
	"errors"
	"io"
	"palcontent/config"
	"palcontent/internal/types"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	PutObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockUploader) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	return m.PutObjectFunc(ctx, params, optFns...)
}

func newTestStorage(t *testing.T) *StorageService {
	t.Helper()
	service, err := NewStorageService(context.Background(), config.Config{
		S3Bucket:          "pal-photos",
		S3Region:          "us-east-2",
		S3AccessKeyID:     "AKIAEXAMPLE",
		S3SecretAccessKey: "secret",
		S3PublicBaseURL:   "https://cdn.example.com/",
	})
	require.NoError(t, err)
	return service
}

func TestStorageService_PresignPhotoUploads(t *testing.T) {
	service := newTestStorage(t)
	franchiseeID, technicianID := uuid.New(), uuid.New()

	uploads, err := service.PresignPhotoUploads(
		context.Background(),
		franchiseeID,
		technicianID,
		[]string{"image/jpeg", "image/png"},
	)
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	first := uploads[0]
	assert.True(t, strings.HasPrefix(first.Key, "submissions/"+franchiseeID.String()+"/"+technicianID.String()+"/"))
	assert.True(t, strings.HasSuffix(first.Key, ".jpg"))
	assert.True(t, strings.HasSuffix(uploads[1].Key, ".png"))
	assert.Contains(t, first.UploadURL, "pal-photos")
	assert.Contains(t, first.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "PUT", first.Method)
	assert.Equal(t, "https://cdn.example.com/"+first.Key, first.PublicURL)
}

func TestStorageService_PresignRejections(t *testing.T) {
	service := newTestStorage(t)

	_, err := service.PresignPhotoUploads(context.Background(), uuid.New(), uuid.New(), []string{"application/pdf"})
	assert.True(t, errors.Is(err, types.ErrUnsupportedUpload))

	_, err = service.PresignPhotoUploads(context.Background(), uuid.New(), uuid.New(), nil)
	assert.True(t, errors.Is(err, types.ErrValidation))

	unconfigured, err := NewStorageService(context.Background(), config.Config{})
	require.NoError(t, err)
	_, err = unconfigured.PresignPhotoUploads(context.Background(), uuid.New(), uuid.New(), []string{"image/jpeg"})
	assert.True(t, errors.Is(err, types.ErrNotConfigured))
}

func TestStorageService_UploadAvatar(t *testing.T) {
	service := newTestStorage(t)

	var stored []byte
	service.uploader = &mockUploader{PutObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		assert.Equal(t, "pal-photos", aws.ToString(params.Bucket))
		assert.Equal(t, "image/png", aws.ToString(params.ContentType))
		data, err := io.ReadAll(params.Body)
		require.NoError(t, err)
		stored = data
		return &s3.PutObjectOutput{}, nil
	}}

	userID := uuid.New()
	url, err := service.UploadAvatar(context.Background(), userID, "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/avatars/"+userID.String()+"/"))
	assert.Equal(t, []byte("png-bytes"), stored)

	_, err = service.UploadAvatar(context.Background(), userID, "image/gif", []byte("gif"))
	assert.True(t, errors.Is(err, types.ErrUnsupportedUpload))

	_, err = service.UploadAvatar(context.Background(), userID, "image/png", nil)
	assert.True(t, errors.Is(err, types.ErrUnsupportedUpload))

	service.uploader = &mockUploader{PutObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("AccessDenied")
	}}
	_, err = service.UploadAvatar(context.Background(), userID, "image/png", []byte("png-bytes"))
	assert.True(t, errors.Is(err, types.ErrUpstream))
}
