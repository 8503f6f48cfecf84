// Package redis keeps order results in Redis with native key expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

const keyPrefix = "result:"

// ResultStore is a Redis backed result repository.
type ResultStore struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewResultStore parses url and returns a store. A zero ttl keeps keys forever.
func NewResultStore(url string, ttl time.Duration) (*ResultStore, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewResultStoreWithClient(goredis.NewClient(opts), ttl), nil
}

func NewResultStoreWithClient(client *goredis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl, now: time.Now}
}

func (s *ResultStore) Save(ctx context.Context, result model.OrderResult) error {
	if result.UpdatedAt.IsZero() {
		result.UpdatedAt = s.now()
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(result.OrderID), data, s.ttl).Err()
}

func (s *ResultStore) Get(ctx context.Context, orderID string) (*model.OrderResult, error) {
	data, err := s.client.Get(ctx, key(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	var res model.OrderResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", orderID, err)
	}
	return &res, nil
}

// Ping checks connectivity.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *ResultStore) Close() error {
	return s.client.Close()
}

func key(orderID string) string {
	return keyPrefix + orderID
}
