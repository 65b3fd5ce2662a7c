package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL matches how long the league page keeps imported data.
const DefaultCacheTTL = 5 * time.Minute

// ImportCache holds imported leagues by Sleeper league id. Get returns
// nil, nil on a miss.
type ImportCache interface {
	Get(ctx context.Context, leagueID string) (*Import, error)
	Set(ctx context.Context, leagueID string, imp *Import) error
}

type memoryEntry struct {
	imp     *Import
	expires time.Time
}

// MemoryCache is a process-local ImportCache.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, leagueID string) (*Import, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[leagueID]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, leagueID)
		return nil, nil
	}
	return e.imp, nil
}

func (c *MemoryCache) Set(_ context.Context, leagueID string, imp *Import) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[leagueID] = memoryEntry{imp: imp, expires: c.now().Add(c.ttl)}
	return nil
}

// RedisCache stores imports as JSON under keyPrefix+leagueID.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisCache connects to redisURL and checks the connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl, keyPrefix: "sleeper:league:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, leagueID string) (*Import, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+leagueID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached league %s: %w", leagueID, err)
	}
	var imp Import
	if err := json.Unmarshal(data, &imp); err != nil {
		return nil, fmt.Errorf("decoding cached league %s: %w", leagueID, err)
	}
	return &imp, nil
}

func (c *RedisCache) Set(ctx context.Context, leagueID string, imp *Import) error {
	data, err := json.Marshal(imp)
	if err != nil {
		return fmt.Errorf("encoding league %s: %w", leagueID, err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+leagueID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching league %s: %w", leagueID, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedImporter serves imports from cache and falls back to the Sleeper
// API on a miss. Cache failures are logged and never fail an import.
type CachedImporter struct {
	client       *Client
	cache        ImportCache
	defaultWeeks int
	logger       *logrus.Logger
}

func NewCachedImporter(client *Client, cache ImportCache, defaultWeeks int, logger *logrus.Logger) *CachedImporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedImporter{
		client:       client,
		cache:        cache,
		defaultWeeks: defaultWeeks,
		logger:       logger,
	}
}

// ImportLeague returns the cached import for leagueID when one is fresh.
func (ci *CachedImporter) ImportLeague(ctx context.Context, leagueID string) (*Import, error) {
	log := ci.logger.WithField("league_id", leagueID)

	imp, err := ci.cache.Get(ctx, leagueID)
	if err != nil {
		log.WithError(err).Warn("Sleeper cache read failed")
	}
	if imp != nil {
		log.Debug("Sleeper cache hit")
		return imp, nil
	}

	imp, err = ci.client.ImportLeague(ctx, leagueID, ci.defaultWeeks)
	if err != nil {
		return nil, err
	}
	if err := ci.cache.Set(ctx, leagueID, imp); err != nil {
		log.WithError(err).Warn("Sleeper cache write failed")
	}
	return imp, nil
}
