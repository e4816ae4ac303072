package storage

import "context"

const ContentTypePNG = "image/png"

// ObjectStore writes objects into a bucket. Objects are never overwritten or
// deleted by this tool.
type ObjectStore interface {
	// Upload stores data under path and returns the path under which the
	// object is publicly served.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

type Config struct {
	Type     string `yaml:"type" validate:"required,oneof=supabase s3"`
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	Bucket   string `yaml:"bucket" validate:"required"`

	// ServiceKey is the bearer token of the supabase backend.
	ServiceKey string `yaml:"serviceKey"`

	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	// PublicBasePath prefixes paths returned by the s3 backend.
	PublicBasePath string `yaml:"publicBasePath"`
}
