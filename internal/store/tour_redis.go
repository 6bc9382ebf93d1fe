package store

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// TourStore persists per-tour completion flags so interface tours run
// once per user rather than once per session.
type TourStore struct {
	client *redis.Client
}

func NewTourStore(client *redis.Client) *TourStore {
	return &TourStore{client: client}
}

func (t *TourStore) key(tourID string) string { return fmt.Sprintf("tour:%s:completed", tourID) }

func (t *TourStore) SetCompleted(ctx context.Context, tourID string) error {
	return t.client.Set(ctx, t.key(tourID), "true", 0).Err()
}

func (t *TourStore) Completed(ctx context.Context, tourID string) (bool, error) {
	res, err := t.client.Get(ctx, t.key(tourID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res == "true", nil
}
