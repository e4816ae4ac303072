package database

import "context"

// RecordUpdater writes the stored image locations into an existing row.
type RecordUpdater interface {
	// UpdateImageURLs sets image_url and thumbnail_url of the row with the
	// given id. A missing row is not an error.
	UpdateImageURLs(ctx context.Context, id, imageURL, thumbnailURL string) error
}

type Config struct {
	Type  string `yaml:"type" validate:"required,oneof=postgres sqlite"`
	Table string `yaml:"table" validate:"required"`

	// ConnectionString takes precedence over the individual parameters.
	// For sqlite it is the database file.
	ConnectionString string `yaml:"connectionString"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=0,max=65535"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslMode"`
}
