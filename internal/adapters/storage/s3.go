// Package storage relays uploaded files to S3-compatible object storage
// (AWS S3, Cloudflare R2, MinIO).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"eventregistration/internal/domain"
)

// S3Config holds configuration for the S3 file sink.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	// KeyPrefix is prepended to every object key, e.g. "registrations/".
	KeyPrefix string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads files as objects and returns their public URL.
type S3Sink struct {
	client        s3API
	bucket        string
	keyPrefix     string
	publicBaseURL string
}

var _ domain.FileSink = (*S3Sink)(nil)

// NewS3Sink builds an S3 client from cfg. A custom Endpoint switches to
// path-style addressing for R2/MinIO.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("invalid S3 configuration: bucket and credentials are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for S3: %w", err)
	}
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := cfg.PublicBaseURL
	if base == "" && cfg.Endpoint != "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
	return newS3Sink(client, cfg.Bucket, cfg.KeyPrefix, base), nil
}

func newS3Sink(client s3API, bucket, keyPrefix, publicBaseURL string) *S3Sink {
	return &S3Sink{
		client:        client,
		bucket:        bucket,
		keyPrefix:     keyPrefix,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *S3Sink) Put(ctx context.Context, obj *domain.FileObject) (string, error) {
	key := s.keyPrefix + obj.Name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Data),
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(obj.ContentType),
		Metadata: map[string]string{
			"original-name": obj.OriginalName,
			"section":       obj.Section,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object to S3 (key: %s): %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}
