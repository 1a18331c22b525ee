package page

import (
	"context"
	"fmt"
	"io"

	"sjsage522/bestpick/config"
	"sjsage522/bestpick/services/cache"
)

// Source loads the markup of the page the user wants winners for.
// It stands in for the browser tab the extraction runs against.
type Source interface {
	// Load returns the UTF-8 markup of target
	Load(ctx context.Context, target string) (io.Reader, error)

	// Name returns the source name for logging
	Name() string
}

// NewSource creates the page source selected by the configuration
func NewSource(cfg *config.Config, cacheSvc cache.CacheService) (Source, error) {
	switch cfg.PageSource {
	case config.SourceHTTP:
		return NewHTTPSource(cfg.FetchTimeout, cacheSvc, cfg.BlockTime), nil
	case config.SourceFile:
		return NewFileSource(), nil
	case config.SourceRod:
		return NewRodSource(cfg.FetchTimeout), nil
	case config.SourceChromedp:
		return NewChromedpSource(cfg.FetchTimeout), nil
	default:
		return nil, fmt.Errorf("unknown page source %q", cfg.PageSource)
	}
}

// Close releases the resources held by src, if any
func Close(src Source) error {
	if closer, ok := src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
