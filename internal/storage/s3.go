package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jo-hoe/logomigrator/internal/common"
)

const defaultRegion = "us-east-1"

// S3Store uploads to any S3 compatible endpoint using path style addressing.
type S3Store struct {
	client         *s3.Client
	endpoint       string
	bucket         string
	publicBasePath string
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:         client,
		endpoint:       cfg.Endpoint,
		bucket:         cfg.Bucket,
		publicBasePath: strings.TrimRight(cfg.PublicBasePath, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return "", &common.UploadError{Path: path, StatusCode: respErr.HTTPStatusCode(), Body: respErr.Err.Error()}
		}
		return "", &common.NetworkError{Op: "upload", URL: s.endpoint, Err: err}
	}

	slog.Debug("object stored", "bucket", s.bucket, "key", path, "bytes", len(data))
	return s.PublicPath(path), nil
}

func (s *S3Store) PublicPath(path string) string {
	return s.publicBasePath + "/" + s.bucket + "/" + path
}
