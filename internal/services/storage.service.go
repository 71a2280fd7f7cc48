package services

import (
	"bytes"
	"context"
	"fmt"
	"palcontent/config"
	"palcontent/internal/types"
	"path"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	presignExpiry    = 15 * time.Minute
	maxPresignBatch  = 20
	MaxAvatarBytes   = 5 << 20
	photoKeyPrefix   = "submissions"
	avatarKeyPrefix  = "avatars"
	defaultS3Region  = "us-east-1"
	cacheControlLong = "public, max-age=31536000, immutable"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}

type s3Presigner interface {
	PresignPutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

type s3Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type PresignedUpload struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"uploadUrl"`
	PublicURL string            `json:"publicUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// StorageService issues presigned uploads for job photos and stores avatars.
type StorageService struct {
	log        logger.Logger
	bucket     string
	publicBase string
	presigner  s3Presigner
	uploader   s3Uploader
}

func NewStorageService(ctx context.Context, cfg config.Config) (*StorageService, error) {
	log := logger.New("StorageService").Function("NewStorageService")

	if cfg.S3Bucket == "" {
		log.Warn("S3_BUCKET not set, uploads are disabled")
		return &StorageService{log: logger.New("StorageService")}, nil
	}

	region := cfg.S3Region
	if region == "" {
		region = defaultS3Region
	}

	options := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, log.Err("failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimSuffix(cfg.S3PublicBaseURL, "/")
	if publicBase == "" {
		if cfg.S3Endpoint != "" {
			publicBase = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, region)
		}
	}

	log.Info("Storage service initialized", "bucket", cfg.S3Bucket, "region", region)
	return &StorageService{
		log:        logger.New("StorageService"),
		bucket:     cfg.S3Bucket,
		publicBase: publicBase,
		presigner:  s3.NewPresignClient(client),
		uploader:   client,
	}, nil
}

func (s *StorageService) IsConfigured() bool {
	return s.bucket != "" && s.presigner != nil
}

func (s *StorageService) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimPrefix(key, "/")
}

// ImageExtension returns the file extension for an accepted image content type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// PresignPhotoUploads issues one PUT URL per content type, keyed under the
// franchise and technician so photos stay partitioned per tenant.
func (s *StorageService) PresignPhotoUploads(
	ctx context.Context,
	franchiseeID uuid.UUID,
	technicianID uuid.UUID,
	contentTypes []string,
) ([]PresignedUpload, error) {
	log := s.log.TraceFromContext(ctx).Function("PresignPhotoUploads")

	if !s.IsConfigured() {
		return nil, log.Err("object storage is not configured", types.ErrNotConfigured)
	}
	if len(contentTypes) == 0 || len(contentTypes) > maxPresignBatch {
		return nil, log.Err("between 1 and 20 uploads may be requested", types.ErrValidation, "count", len(contentTypes))
	}

	uploads := make([]PresignedUpload, 0, len(contentTypes))
	for _, contentType := range contentTypes {
		ext, ok := ImageExtension(contentType)
		if !ok {
			return nil, log.Err("unsupported photo content type", types.ErrUnsupportedUpload, "contentType", contentType)
		}

		key := path.Join(photoKeyPrefix, franchiseeID.String(), technicianID.String(), uuid.NewString()+"."+ext)
		request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		}, s3.WithPresignExpires(presignExpiry))
		if err != nil {
			return nil, log.Err("failed to presign upload", fmt.Errorf("%w: %w", types.ErrUpstream, err), "key", key)
		}

		uploads = append(uploads, PresignedUpload{
			Key:       key,
			UploadURL: request.URL,
			PublicURL: s.PublicURL(key),
			Method:    request.Method,
			Headers:   map[string]string{"Content-Type": contentType},
			ExpiresAt: time.Now().UTC().Add(presignExpiry),
		})
	}

	log.Info("presigned photo uploads", "count", len(uploads), "franchiseeID", franchiseeID)
	return uploads, nil
}

// UploadAvatar stores the image and returns its public URL.
func (s *StorageService) UploadAvatar(
	ctx context.Context,
	userID uuid.UUID,
	contentType string,
	data []byte,
) (string, error) {
	log := s.log.TraceFromContext(ctx).Function("UploadAvatar")

	if s.uploader == nil || s.bucket == "" {
		return "", log.Err("object storage is not configured", types.ErrNotConfigured)
	}

	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", log.Err("unsupported avatar content type", types.ErrUnsupportedUpload, "contentType", contentType)
	}
	if len(data) == 0 || len(data) > MaxAvatarBytes {
		return "", log.Err("avatar size out of range", types.ErrUnsupportedUpload, "bytes", len(data))
	}

	key := path.Join(avatarKeyPrefix, userID.String(), uuid.NewString()+"."+ext)
	_, err := s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String(cacheControlLong),
	})
	if err != nil {
		return "", log.Err("failed to upload avatar", fmt.Errorf("%w: %w", types.ErrUpstream, err), "key", key)
	}

	log.Info("avatar uploaded", "userID", userID, "key", key)
	return s.PublicURL(key), nil
}
