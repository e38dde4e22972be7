package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const DefaultRegion = "us-east-1" // Default region if not specified in AWS profile

// s3API is the part of *s3.Client the bucket uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Bucket struct {
	client s3API
}

// NewS3Bucket loads the shared AWS configuration for profile.
func NewS3Bucket(ctx context.Context, profile string) (Bucket, error) {
	opts := []func(*config.LoadOptions) error{config.WithDefaultRegion(DefaultRegion)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return newS3Bucket(s3.NewFromConfig(awsCfg)), nil
}

func newS3Bucket(client s3API) Bucket {
	return &s3Bucket{client: client}
}

func (b *s3Bucket) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(loc.Host),
		Key:    awssdk.String(loc.Path),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (b *s3Bucket) Put(ctx context.Context, loc Location, r io.Reader) error {
	// PutObject needs a seekable body to compute the payload checksum.
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awssdk.String(loc.Host),
		Key:           awssdk.String(loc.Path),
		Body:          bytes.NewReader(data),
		ContentLength: awssdk.Int64(int64(len(data))),
	})
	return err
}
