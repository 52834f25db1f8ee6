package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "directory"
	generationKey = keyPrefix + ":generation"
)

// DirectoryCache кэширует публичные выдачи каталога терапевтов.
// Инвалидация делается сдвигом поколения: старые ключи просто истекают по TTL.
type DirectoryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewDirectoryCache(client redis.Cmdable, ttl time.Duration) *DirectoryCache {
	if client == nil {
		return nil
	}
	return &DirectoryCache{client: client, ttl: ttl}
}

// Get возвращает закэшированный список; ok=false при промахе.
// generation нужно передать в Set: запись под поколением, прочитанным до
// запроса в БД, не переживёт инвалидацию, случившуюся во время запроса.
func (c *DirectoryCache) Get(ctx context.Context, filter model.TherapistFilter) (therapists []*model.Therapist, generation int64, ok bool, err error) {
	if c == nil {
		return nil, 0, false, nil
	}

	generation, err = c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.client.Get(ctx, key(generation, filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("get directory cache: %w", err)
	}

	if err := json.Unmarshal(raw, &therapists); err != nil {
		return nil, 0, false, fmt.Errorf("decode directory cache: %w", err)
	}

	return therapists, generation, true, nil
}

// Set сохраняет список под поколением, полученным из Get
func (c *DirectoryCache) Set(ctx context.Context, generation int64, filter model.TherapistFilter, therapists []*model.Therapist) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(therapists)
	if err != nil {
		return fmt.Errorf("encode directory cache: %w", err)
	}

	if err := c.client.Set(ctx, key(generation, filter), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set directory cache: %w", err)
	}

	return nil
}

// Invalidate делает все ранее сохранённые выдачи недостижимыми
func (c *DirectoryCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("invalidate directory cache: %w", err)
	}

	return nil
}

func (c *DirectoryCache) generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("get directory generation: %w", err)
	}
	return generation, nil
}

func key(generation int64, filter model.TherapistFilter) string {
	return fmt.Sprintf("%s:%d:%s:%s",
		keyPrefix,
		generation,
		strings.ToLower(strings.TrimSpace(filter.Specialization)),
		strings.ToLower(strings.TrimSpace(filter.Search)),
	)
}
