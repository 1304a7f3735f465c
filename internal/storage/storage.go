// Package storage aggregates the service's infrastructure adapters: MySQL
// for persisted analyses and the corpus table, Redis for report caching and
// duplicate detection, MinIO for archived uploads and corpus objects, and
// RabbitMQ for the async analysis queue. Every component is optional; the
// pipeline core never depends on any of them.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-match-go/internal/config"
)

// Storage is the aggregate of whichever adapters the configuration enables.
// Fields stay nil when their component is unconfigured or failed to start.
type Storage struct {
	MySQL    *MySQL
	Redis    *Redis
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
}

// NewStorage initializes each configured component. A component failure is
// a warning, not a startup abort, because the analysis pipeline degrades
// cleanly without persistence; only all components failing at once is
// treated as a deployment fault.
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	s := &Storage{}
	var initErrors []string
	var attempted int

	if cfg.MySQL.Host != "" {
		attempted++
		mysql, err := NewMySQL(&cfg.MySQL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("mysql init failed, continuing without persistence")
			initErrors = append(initErrors, fmt.Sprintf("mysql: %v", err))
		} else {
			s.MySQL = mysql
		}
	}

	if cfg.Redis.Address != "" {
		attempted++
		redis, err := NewRedis(&cfg.Redis, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis init failed, continuing without cache")
			initErrors = append(initErrors, fmt.Sprintf("redis: %v", err))
		} else {
			s.Redis = redis
		}
	}

	if cfg.MinIO.Endpoint != "" {
		attempted++
		minio, err := NewMinIO(&cfg.MinIO, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("minio init failed, continuing without archival")
			initErrors = append(initErrors, fmt.Sprintf("minio: %v", err))
		} else {
			s.MinIO = minio
		}
	}

	if cfg.RabbitMQ.URL != "" {
		attempted++
		rabbit, err := NewRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("rabbitmq init failed, async analysis disabled")
			initErrors = append(initErrors, fmt.Sprintf("rabbitmq: %v", err))
		} else {
			s.RabbitMQ = rabbit
		}
	}

	if attempted > 0 && len(initErrors) == attempted {
		return nil, fmt.Errorf("all configured storage components failed: %s", strings.Join(initErrors, "; "))
	}
	return s, nil
}

// AsyncReady reports whether the async analysis path has everything it
// needs: a broker for tasks and an object store holding the bytes.
func (s *Storage) AsyncReady() bool {
	return s.RabbitMQ != nil && s.MinIO != nil
}

// Close shuts down every live component.
func (s *Storage) Close(logger zerolog.Logger) {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing rabbitmq failed")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing mysql failed")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing redis failed")
		}
	}
	// The MinIO client holds no long-lived connection worth closing.
}
