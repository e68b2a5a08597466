package catalog

import (
	"context"
	"fmt"

	"github.com/joshsymonds/appquality/internal/config"
	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// Source answers catalog queries.
type Source interface {
	Name() string
	Query(ctx context.Context, q Query) (*models.Payload, error)
}

// New builds the source selected by the catalog configuration, wrapped in a
// response cache when a cache directory is set.
func New(ctx context.Context, cfg config.CatalogConfig, log logger.Logger) (Source, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	src, err := newSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.CacheDir == "" {
		return src, nil
	}
	cached, err := NewCachedSource(src, cfg.CacheDir, cfg.CacheTTL, log)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func newSource(ctx context.Context, cfg config.CatalogConfig, log logger.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewFileSource(cfg.Dir, cfg.Glob, log), nil
	case config.SourceHTTP:
		return NewHTTPSource(cfg.Endpoint, cfg.Timeout, log), nil
	case config.SourceS3:
		src, err := NewS3Source(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, &FetchError{Source: cfg.Source, Kind: KindConfig, Err: fmt.Errorf("unknown catalog source %q", cfg.Source)}
	}
}
