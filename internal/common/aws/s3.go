// internal/common/aws/s3.go
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3EvidenceStore is the object-storage home for attempt screenshots.
// Keys are append-only from the pipeline's perspective and never overwritten.
type S3EvidenceStore struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3EvidenceStore(ctx context.Context, region, bucket, keyPrefix string) (*S3EvidenceStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &S3EvidenceStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.TrimSuffix(keyPrefix, "/"),
	}, nil
}

func (s *S3EvidenceStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Upload stores the payload under key and returns the object URL.
func (s *S3EvidenceStore) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	objKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", objKey, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objKey), nil
}

// Download retrieves a stored object by key.
func (s *S3EvidenceStore) Download(ctx context.Context, key string) ([]byte, error) {
	objKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", objKey, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Exists reports whether an object is already stored under key.
func (s *S3EvidenceStore) Exists(ctx context.Context, key string) (bool, error) {
	objKey := s.objectKey(key)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head %s: %w", objKey, err)
	}
	return true, nil
}
