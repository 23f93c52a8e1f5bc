package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const categoryKeyPrefix = "category:"

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func categoryKey(id int64) string {
	return categoryKeyPrefix + strconv.FormatInt(id, 10)
}

// SetCategory кеширует найденную категорию. Отсутствие категории не кешируется.
func (r *RedisClient) SetCategory(ctx context.Context, category *entity.Category, ttl time.Duration) error {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpSet).ObserveDuration()

	data, err := json.Marshal(category)
	if err != nil {
		return fmt.Errorf("failed to marshal category: %w", err)
	}

	if err := r.client.Set(ctx, categoryKey(category.ID), data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set category in cache: %w", err)
	}

	return nil
}

func (r *RedisClient) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpGet).ObserveDuration()

	data, err := r.client.Get(ctx, categoryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, categoryKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get category from cache: %w", err)
	}

	var category entity.Category
	if err := json.Unmarshal(data, &category); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category: %w", err)
	}

	metrics.RecordCacheHit(serviceName, categoryKeyPrefix)
	return &category, nil
}

// Ping используется health check'ом
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
