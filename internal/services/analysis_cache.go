package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/resume-rubric/internal/rubric"
)

const analysisKeyPrefix = "resume-rubric:analysis:"

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnalysisCache shares validated analyses across processes for ttl.
func NewRedisAnalysisCache(client *redis.Client, ttl time.Duration) rubric.AnalysisCache {
	return &redisAnalysisCache{client: client, ttl: ttl}
}

// ConnectRedis parses url and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *redisAnalysisCache) GetAnalysis(ctx context.Context, postingHash string) (*rubric.JobAnalysis, bool, error) {
	raw, err := c.client.Get(ctx, analysisKeyPrefix+postingHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached analysis: %w", err)
	}

	var a rubric.JobAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &a, true, nil
}

func (c *redisAnalysisCache) PutAnalysis(ctx context.Context, postingHash string, analysis *rubric.JobAnalysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := c.client.SetNX(ctx, analysisKeyPrefix+postingHash, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

type layeredAnalysisCache struct {
	layers []rubric.AnalysisCache
	logger *zap.Logger
}

// NewLayeredAnalysisCache reads layers in order and backfills the faster
// layers on a hit further down. Nil layers are skipped.
func NewLayeredAnalysisCache(log *zap.Logger, layers ...rubric.AnalysisCache) rubric.AnalysisCache {
	var active []rubric.AnalysisCache
	for _, l := range layers {
		if l != nil {
			active = append(active, l)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &layeredAnalysisCache{layers: active, logger: log.Named("analysis_cache")}
}

func (c *layeredAnalysisCache) GetAnalysis(ctx context.Context, postingHash string) (*rubric.JobAnalysis, bool, error) {
	var errs []error
	for i, layer := range c.layers {
		a, ok, err := layer.GetAnalysis(ctx, postingHash)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		for _, upper := range c.layers[:i] {
			if err := upper.PutAnalysis(ctx, postingHash, a); err != nil {
				c.logger.Warn("backfill failed", zap.String("posting_hash", postingHash), zap.Error(err))
			}
		}
		return a, true, nil
	}
	return nil, false, errors.Join(errs...)
}

func (c *layeredAnalysisCache) PutAnalysis(ctx context.Context, postingHash string, analysis *rubric.JobAnalysis) error {
	var errs []error
	for _, layer := range c.layers {
		if err := layer.PutAnalysis(ctx, postingHash, analysis); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
