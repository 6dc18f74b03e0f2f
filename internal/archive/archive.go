package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bilgisen/newsflow/internal/config"
)

// Publisher copies rendered output to long-lived object storage
type Publisher interface {
	UploadFile(ctx context.Context, key, filePath, contentType string) error
	UploadJSON(ctx context.Context, key string, v interface{}) error
	Enabled() bool
}

// Noop is used when no bucket is configured
type Noop struct{}

func (Noop) UploadFile(ctx context.Context, key, filePath, contentType string) error { return nil }
func (Noop) UploadJSON(ctx context.Context, key string, v interface{}) error          { return nil }
func (Noop) Enabled() bool                                                            { return false }

// S3Publisher uploads to an S3 compatible bucket such as Cloudflare R2
type S3Publisher struct {
	client *s3.Client
	bucket string
	prefix string
}

// New returns an S3 publisher for the configured R2 bucket, or Noop.
func New(ctx context.Context, cfg *config.Config) (Publisher, error) {
	if cfg.R2Bucket == "" {
		return Noop{}, nil
	}
	endpoint := cfg.R2Endpoint
	if endpoint == "" && cfg.R2AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	}
	return NewS3Publisher(ctx, endpoint, cfg.R2AccessKey, cfg.R2SecretKey, cfg.R2Bucket, "")
}

func NewS3Publisher(ctx context.Context, endpoint, accessKey, secretKey, bucket, prefix string) (*S3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})
	return &S3Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (p *S3Publisher) Enabled() bool { return true }

func (p *S3Publisher) objectKey(key string) string {
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}

func (p *S3Publisher) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(p.objectKey(key)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (p *S3Publisher) UploadFile(ctx context.Context, key, filePath, contentType string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return p.put(ctx, key, data, contentType)
}

func (p *S3Publisher) UploadJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return p.put(ctx, key, data, "application/json")
}
