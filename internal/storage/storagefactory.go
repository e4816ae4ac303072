package storage

import (
	"context"
	"errors"
	"fmt"
)

func NewObjectStore(ctx context.Context, cfg Config) (store ObjectStore, err error) {
	switch cfg.Type {
	case "", "supabase":
		if cfg.ServiceKey == "" {
			return nil, errors.New("supabase storage requires a service key")
		}
		store = NewSupabaseStore(cfg.Endpoint, cfg.Bucket, cfg.ServiceKey, nil)
	case "s3":
		store, err = NewS3Store(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	return store, nil
}
