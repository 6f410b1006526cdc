package domain

import "context"

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error
	LogReject(ctx context.Context, r Reject) error

	// Read paths
	ListReviews(ctx context.Context, f ReviewFilter) ([]Review, error)
}

// DatasetReader loads the precomputed review dataset as loosely typed rows.
type DatasetReader interface {
	LoadAll(ctx context.Context) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
