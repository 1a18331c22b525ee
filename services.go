package main

import (
	"context"
	"fmt"

	"sjsage522/bestpick/config"
	"sjsage522/bestpick/internal/extractor"
	"sjsage522/bestpick/internal/page"
	"sjsage522/bestpick/logger"
	"sjsage522/bestpick/services/cache"
	"sjsage522/bestpick/services/publisher"
	"sjsage522/bestpick/services/trigger"
)

// channelBuffer is the number of results the panel may lag behind
const channelBuffer = 16

// Services holds all the initialized services
type Services struct {
	Cache      cache.CacheService
	Source     page.Source
	Channel    *publisher.ChannelPublisher
	Redis      *publisher.RedisPublisher
	Subscriber *publisher.RedisSubscriber
	Publisher  *publisher.MultiPublisher
	Trigger    *trigger.Trigger
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	log := logger.ForApp()
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close publishers")
		}
	}
	if s.Subscriber != nil {
		if err := s.Subscriber.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close subscriber")
		}
	}
	if s.Source != nil {
		if err := page.Close(s.Source); err != nil {
			log.Warn().Err(err).Msg("Failed to close page source")
		}
	}
}

// initializeServices initializes all required services.
// Memcache and Redis are optional; an unreachable server is logged and skipped.
func initializeServices(ctx context.Context, cfg *config.Config, withPanel bool) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache is unreachable, rate limit blocks disabled")
		} else {
			services.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		rp := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := rp.Ping(ctx); err != nil {
			logger.LogError("publisher", err, "Redis at %s is unreachable, stream transport disabled", cfg.RedisAddr)
			_ = rp.Close()
		} else {
			services.Redis = rp
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
			if withPanel {
				services.Subscriber = publisher.NewRedisSubscriber(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, publisher.MessageKey)
			}
		}
	}

	var publishers []publisher.Publisher
	if withPanel {
		services.Channel = publisher.NewChannelPublisher(channelBuffer)
		publishers = append(publishers, services.Channel)
	}
	if services.Redis != nil {
		publishers = append(publishers, services.Redis)
	}
	services.Publisher = publisher.NewMultiPublisher(publishers...)

	src, err := page.NewSource(cfg, services.Cache)
	if err != nil {
		services.Cleanup()
		return nil, err
	}
	services.Source = src

	ext, err := extractor.New(extractor.DefaultSelectors())
	if err != nil {
		services.Cleanup()
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	services.Trigger = trigger.New(src, ext, services.Publisher)
	return services, nil
}
