package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
)

// ErrCacheMiss is returned when a requested cache entry does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Redis caches rendered reports and remembers upload digests for duplicate
// detection.
type Redis struct {
	client    *redis.Client
	cfg       *config.RedisConfig
	reportTTL time.Duration
	logger    zerolog.Logger
}

// NewRedis connects, verifies the connection and installs otel
// instrumentation.
func NewRedis(cfg *config.RedisConfig, logger zerolog.Logger) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is nil")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	reportTTL := constants.ResumeMD5TTL
	if cfg.ReportTTLHours > 0 {
		reportTTL = time.Duration(cfg.ReportTTLHours) * time.Hour
	}

	logger.Info().Str("address", cfg.Address).Msg("redis connected")
	return &Redis{client: client, cfg: cfg, reportTTL: reportTTL, logger: logger}, nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping verifies liveness.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// LookupAnalysisByDigest returns the analysis id that already covers a
// request digest, or ErrCacheMiss.
func (r *Redis) LookupAnalysisByDigest(ctx context.Context, requestDigest string) (string, error) {
	key := fmt.Sprintf(constants.KeyRequestDigestToAnalysis, requestDigest)
	analysisID, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("lookup digest mapping: %w", err)
	}
	return analysisID, nil
}

// RememberAnalysis records that requestDigest is covered by analysisID. The
// file MD5 also lands in the dedupe set so operators can count distinct
// uploads cheaply.
func (r *Redis) RememberAnalysis(ctx context.Context, requestDigest, fileMD5, analysisID string) error {
	key := fmt.Sprintf(constants.KeyRequestDigestToAnalysis, requestDigest)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, analysisID, r.reportTTL)
	pipe.SAdd(ctx, constants.KeyResumeMD5Set, fileMD5)
	pipe.Expire(ctx, constants.KeyResumeMD5Set, r.reportTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remember digest mapping: %w", err)
	}
	return nil
}

// ForgetAnalysis rolls back a dedupe entry after a failed persist so the
// next identical request is not routed to a report that was never stored.
func (r *Redis) ForgetAnalysis(ctx context.Context, requestDigest, fileMD5 string) error {
	key := fmt.Sprintf(constants.KeyRequestDigestToAnalysis, requestDigest)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, constants.KeyResumeMD5Set, fileMD5)
	_, err := pipe.Exec(ctx)
	return err
}

// CacheReport stores a rendered report JSON under its analysis id.
func (r *Redis) CacheReport(ctx context.Context, analysisID string, reportJSON []byte) error {
	key := fmt.Sprintf(constants.KeyAnalysisReport, analysisID)
	if err := r.client.Set(ctx, key, reportJSON, r.reportTTL).Err(); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	return nil
}

// DropCachedReport removes a cached report, used when an analysis is
// deleted.
func (r *Redis) DropCachedReport(ctx context.Context, analysisID string) error {
	key := fmt.Sprintf(constants.KeyAnalysisReport, analysisID)
	return r.client.Del(ctx, key).Err()
}

// GetCachedReport fetches a cached report JSON, or ErrCacheMiss.
func (r *Redis) GetCachedReport(ctx context.Context, analysisID string) ([]byte, error) {
	key := fmt.Sprintf(constants.KeyAnalysisReport, analysisID)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get cached report: %w", err)
	}
	return data, nil
}
