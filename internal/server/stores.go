package server

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/auth"
	"github.com/hongminglow/defect-portal/internal/config"
	"github.com/hongminglow/defect-portal/internal/metrics"
	"github.com/hongminglow/defect-portal/internal/storage"
	"github.com/hongminglow/defect-portal/internal/storage/cookie"
	"github.com/hongminglow/defect-portal/internal/storage/memory"
	"github.com/hongminglow/defect-portal/internal/storage/postgres"
	"github.com/hongminglow/defect-portal/internal/storage/redis"
)

const (
	slotIssuer    = "defect-portal"
	purgeInterval = 15 * time.Minute
)

// sessionStore is the configured persistence for browser sessions.
type sessionStore struct {
	resolver storage.Resolver
	close    func() error
}

// openSessionStore builds the resolver for cfg.SessionStore.
func openSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sessionStore, error) {
	secure := cfg.IsProduction()

	if cfg.SessionStore == config.StoreCookie {
		hashKey, blockKey := deriveCookieKeys(cfg.SessionSecret)
		resolver := cookie.NewResolver(hashKey, blockKey, int(cfg.SlotTTL.Seconds()), secure)
		return &sessionStore{resolver: resolver, close: func() error { return nil }}, nil
	}

	var slots storage.SlotStore
	switch cfg.SessionStore {
	case config.StoreMemory:
		slots = memory.NewStore(cfg.SlotTTL)
	case config.StorePostgres:
		pg, err := postgres.NewSlotStore(ctx, cfg.DatabaseURL, cfg.SlotTTL)
		if err != nil {
			return nil, fmt.Errorf("open postgres session store: %w", err)
		}
		stop := make(chan struct{})
		go purgeLoop(pg, stop, logger)
		slots = &stoppingStore{SlotStore: pg, stop: stop}
	case config.StoreRedis:
		rs, err := redis.NewSlotStore(ctx, cfg.RedisURL, cfg.SlotTTL)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		slots = rs
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	tokens := auth.NewSlotTokens(cfg.SessionSecret, slotIssuer, cfg.SlotTTL)
	return &sessionStore{
		resolver: storage.NewTokenResolver(slots, tokens, secure),
		close:    slots.Close,
	}, nil
}

// deriveCookieKeys splits the session secret into an HMAC key and an AES-256 key.
func deriveCookieKeys(secret string) (hashKey, blockKey []byte) {
	h := sha256.Sum256([]byte("hash:" + secret))
	b := sha256.Sum256([]byte("block:" + secret))
	return h[:], b[:]
}

// stoppingStore stops the background purge before closing the pool.
type stoppingStore struct {
	storage.SlotStore
	stop chan struct{}
}

func (s *stoppingStore) Close() error {
	close(s.stop)
	return s.SlotStore.Close()
}

func purgeLoop(pg *postgres.Store, stop <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := pg.Purge(ctx)
			cancel()
			if err != nil {
				metrics.StorageErrors.WithLabelValues("purge").Inc()
				logger.Warn("purge expired session slots", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("purged expired session slots", zap.Int64("removed", removed))
			}
		}
	}
}
