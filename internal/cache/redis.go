package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/awesome-academy/booking-tour/config"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client        *redis.Client
	departuresTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, departuresTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:        redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		departuresTTL: departuresTTL,
	}
}

func (c *RedisCache) GetDepartures(ctx context.Context) ([]domain.DepartureDetail, error) {
	data, err := c.client.Get(ctx, departuresKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var departures []domain.DepartureDetail
	if err := json.Unmarshal(data, &departures); err != nil {
		return nil, err
	}
	return departures, nil
}

func (c *RedisCache) SetDepartures(ctx context.Context, departures []domain.DepartureDetail) error {
	payload, err := json.Marshal(departures)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, departuresKey(), payload, c.departuresTTL).Err()
}

func departuresKey() string {
	return "cache:departures"
}
