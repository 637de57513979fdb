package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/citizencircle/civic-api/internal/config"
)

// Host stores and removes issue photos on an external image host.
type Host interface {
	Upload(ctx context.Context, obj Object) (*Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}

// Object is an image ready to be stored.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploaded is where the host put an object.
type Uploaded struct {
	URL      string
	PublicID string
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Host keeps photos in an S3-compatible bucket.
type S3Host struct {
	client     objectAPI
	bucket     string
	publicBase string
	logger     *zap.Logger
}

// NewS3Host builds a host from media settings.
func NewS3Host(ctx context.Context, cfg config.MediaConfig, logger *zap.Logger) (*S3Host, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("media bucket not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = defaultPublicBase(cfg)
	}

	logger.Info("media host ready", zap.String("bucket", cfg.Bucket))
	return newS3Host(client, cfg.Bucket, publicBase, logger), nil
}

func newS3Host(client objectAPI, bucket, publicBase string, logger *zap.Logger) *S3Host {
	return &S3Host{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger,
	}
}

// Upload puts the object and returns its public URL. The key doubles as the public id.
func (h *S3Host) Upload(ctx context.Context, obj Object) (*Uploaded, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(obj.Key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := h.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put object %s: %w", obj.Key, err)
	}
	return &Uploaded{URL: h.publicBase + "/" + obj.Key, PublicID: obj.Key}, nil
}

// Delete removes an object by public id.
func (h *S3Host) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	h.logger.Debug("media deleted", zap.String("public_id", publicID))
	return nil
}

func defaultPublicBase(cfg config.MediaConfig) string {
	if cfg.EndpointURL != "" {
		return strings.TrimRight(cfg.EndpointURL, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}
