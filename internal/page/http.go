package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"

	"sjsage522/bestpick/helpers"
	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
	"sjsage522/bestpick/services/cache"
)

// HTTPSource fetches pages over plain HTTP with browser-like headers.
// A host that rate limits us is not contacted again for BlockTime.
type HTTPSource struct {
	client    *http.Client
	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewHTTPSource creates a new HTTP page source; cacheSvc may be nil
func NewHTTPSource(timeout time.Duration, cacheSvc cache.CacheService, blockTime time.Duration) *HTTPSource {
	return &HTTPSource{
		client:    &http.Client{Timeout: timeout},
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
		log:       logger.ForSource("http"),
	}
}

// Name returns the source name
func (s *HTTPSource) Name() string {
	return "http"
}

// Load fetches target unless its host is currently blocked
func (s *HTTPSource) Load(ctx context.Context, target string) (io.Reader, error) {
	u := helpers.ParseBaseURL(target)
	if u == nil {
		return nil, apperrors.NewValidation(target, "target must be an absolute http(s) URL")
	}

	key := blockKey(u.Host)
	if s.cacheSvc != nil {
		if _, err := s.cacheSvc.Get(key); err == nil {
			return nil, apperrors.NewRateLimit(u.Host, s.blockTime)
		}
	}

	body, err := helpers.FetchWithRandomHeaders(ctx, s.client, target)
	if err != nil {
		if errors.Is(err, helpers.ErrRateLimited) {
			s.block(key, u.Host)
			return nil, apperrors.New(apperrors.ErrorTypeRateLimit, u.Host, "site rate limited the request", err)
		}
		return nil, apperrors.NewNetwork(target, "failed to load page", err)
	}

	return body, nil
}

func (s *HTTPSource) block(key, host string) {
	if s.cacheSvc == nil || s.blockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", s.blockTime/time.Second))
	if err := s.cacheSvc.Set(key, value, s.blockTime); err != nil {
		s.log.Warn().
			Err(apperrors.NewCache(host, "failed to store rate limit block", err)).
			Msg("Rate limit block not cached")
		return
	}
	s.log.Info().
		Str("host", host).
		Dur("block_time", s.blockTime).
		Msg("Host rate limited, blocking further requests")
}

// blockKey returns a memcache-safe key for host
func blockKey(host string) string {
	return fmt.Sprintf("bestpick_blocked_%016x", xxhash.Sum64String(host))
}
