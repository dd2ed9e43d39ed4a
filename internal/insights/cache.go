package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"medscan/internal/logger"
	"medscan/pkg/models"
)

// cacheClient is the part of the Redis client used here. *redis.Client implements it.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// CachedProvider serves repeated requests for the same report from Redis.
// Only successful insights are stored; cache failures fall through to the provider.
type CachedProvider struct {
	next   Provider
	client cacheClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedProvider wraps next with a Redis cache.
func NewCachedProvider(next Provider, client cacheClient, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    logger.WithComponent("insight-cache"),
	}
}

// Name implements Provider.
func (c *CachedProvider) Name() string {
	return c.next.Name()
}

// CacheKey returns the key for a provider and prompt: insights:<provider>:<sha256>.
func CacheKey(provider, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("insights:%s:%s", provider, hex.EncodeToString(sum[:]))
}

// Insights implements Provider.
func (c *CachedProvider) Insights(ctx context.Context, text string, analysis *models.AnalysisResult) (*models.Insight, error) {
	key := CacheKey(c.Name(), BuildPrompt(text, analysis))

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}

	insight, err := c.next.Insights(ctx, text, analysis)
	if err != nil || !insight.OK() {
		return insight, err
	}

	c.store(ctx, key, insight)
	return insight, nil
}

func (c *CachedProvider) lookup(ctx context.Context, key string) (*models.Insight, bool) {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Insight cache read failed")
		return nil, false
	}

	var insight models.Insight
	if err := json.Unmarshal([]byte(data), &insight); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cached insight")
		return nil, false
	}

	insight.Cached = true
	c.log.Debug().Str("key", key).Msg("Insight cache hit")
	return &insight, true
}

func (c *CachedProvider) store(ctx context.Context, key string, insight *models.Insight) {
	payload, err := json.Marshal(insight)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to encode insight for cache")
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Insight cache write failed")
	}
}
