package publisher

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sjsage522/bestpick/logger"
)

// RedisSubscriber reads messages published to a Redis stream by RedisPublisher
type RedisSubscriber struct {
	client     *redis.Client
	stream     string
	key        string
	block      time.Duration
	retryDelay time.Duration
	log        *logger.Logger
}

// NewRedisSubscriber creates a subscriber for the messages stored under key
func NewRedisSubscriber(addr string, db int, stream, key string) *RedisSubscriber {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisSubscriber{
		client:     client,
		stream:     stream,
		key:        key,
		block:      5 * time.Second,
		retryDelay: time.Second,
		log:        logger.ForPublisher().WithField("subscriber", stream),
	}
}

// Run delivers every message added after it started to handle until ctx is done
func (s *RedisSubscriber) Run(ctx context.Context, handle func([]byte)) error {
	lastID := "$"

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.stream, lastID},
			Count:   10,
			Block:   s.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn().Err(err).Msg("Failed to read stream, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.retryDelay):
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				payload, ok := s.decode(msg)
				if !ok {
					continue
				}
				handle(payload)
			}
		}
	}
}

func (s *RedisSubscriber) decode(msg redis.XMessage) ([]byte, bool) {
	raw, ok := msg.Values[s.key].(string)
	if !ok {
		s.log.Debug().Str("id", msg.ID).Msg("Stream entry has no result field")
		return nil, false
	}
	payload, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("id", msg.ID).Msg("Stream entry is not valid base64")
		return nil, false
	}
	return payload, true
}

// Close closes the Redis connection
func (s *RedisSubscriber) Close() error {
	return s.client.Close()
}
