package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// NewObjectID returns a random UUID v4 used to name a stored image pair.
func NewObjectID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate object id: %w", err)
	}
	return id.String(), nil
}

// OriginalPath is the bucket path of the full size variant.
func OriginalPath(id string) string {
	return "originals/" + id + ".png"
}

// ThumbnailPath is the bucket path of the thumbnail variant.
func ThumbnailPath(id string) string {
	return id + ".png"
}
