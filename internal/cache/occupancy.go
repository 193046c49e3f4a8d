package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/utils"
)

// Occupancy is the cached monthly figure for one location bucket.
type Occupancy struct {
	LocationID uuid.UUID `json:"location_id"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	Capacity   int       `json:"capacity"`
	Allocated  int64     `json:"allocated"`
	Balance    int64     `json:"balance"`
	Percent    float64   `json:"percent"`
}

// OccupancyCache is a read-through cache over the occupancy report. Misses
// and redis failures degrade to recomputation, never to an error.
type OccupancyCache interface {
	Get(ctx context.Context, locationID uuid.UUID, month, year int) (*Occupancy, bool)
	Set(ctx context.Context, occ *Occupancy)
	Invalidate(ctx context.Context, locationID uuid.UUID, month, year int)
	Close() error
}

type occupancyCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewOccupancyCache(log *logger.Logger) (OccupancyCache, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := utils.GetEnvAsInt("OCCUPANCY_CACHE_TTL_SECONDS", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &occupancyCache{
		log: log.With("service", "OccupancyCache"),
		rdb: rdb,
		ttl: time.Duration(ttl) * time.Second,
	}, nil
}

func cacheKey(locationID uuid.UUID, month, year int) string {
	return fmt.Sprintf("occupancy:%s:%d:%d", locationID, year, month)
}

func (c *occupancyCache) Get(ctx context.Context, locationID uuid.UUID, month, year int) (*Occupancy, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(locationID, month, year)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache get failed", "error", err)
		}
		return nil, false
	}
	var occ Occupancy
	if err := json.Unmarshal(raw, &occ); err != nil {
		c.log.Warn("Cache payload corrupt, dropping", "error", err)
		c.Invalidate(ctx, locationID, month, year)
		return nil, false
	}
	return &occ, true
}

func (c *occupancyCache) Set(ctx context.Context, occ *Occupancy) {
	raw, err := json.Marshal(occ)
	if err != nil {
		c.log.Warn("Cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(occ.LocationID, occ.Month, occ.Year), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache set failed", "error", err)
	}
}

func (c *occupancyCache) Invalidate(ctx context.Context, locationID uuid.UUID, month, year int) {
	if err := c.rdb.Del(ctx, cacheKey(locationID, month, year)).Err(); err != nil {
		c.log.Warn("Cache invalidate failed", "error", err)
	}
}

func (c *occupancyCache) Close() error {
	return c.rdb.Close()
}
