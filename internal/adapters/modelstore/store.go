// Package modelstore fetches the fitted forecast bundle from a file, a model
// registry over HTTP, or S3-compatible object storage.
package modelstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
)

type Options struct {
	APIKey     string       // sent as X-API-Key to an HTTP registry
	RPS        int          // client-side request rate to the registry
	HTTPClient *http.Client // optional; defaults to a 20s-timeout client
}

// Open picks a source by URI scheme: s3://bucket/key, http(s)://..., or a
// local path (optionally file://).
func Open(ctx context.Context, uri string, opts Options) (forecast.BundleSource, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: model uri %q: %v", domain.ErrModelUnavailable, uri, err)
	}
	switch u.Scheme {
	case "s3":
		return NewS3Source(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "http", "https":
		return NewHTTPSource(uri, opts)
	case "file":
		return FileSource{Path: u.Path}, nil
	case "":
		return FileSource{Path: uri}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported model uri scheme %q", domain.ErrModelUnavailable, u.Scheme)
	}
}

type FileSource struct{ Path string }

func (s FileSource) Load(_ context.Context) (*forecast.Bundle, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	return decode(s.Path, b)
}

// decode turns raw bytes into a validated bundle. Any failure means the
// service cannot score, so it is reported as ErrModelUnavailable.
func decode(name string, b []byte) (*forecast.Bundle, error) {
	bundle, err := forecast.DecodeBundle(name, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if bundle.Variant == forecast.VariantEnsemble && !bundle.Weights.Balanced() {
		log.Warn().Str("bundle", bundle.Name).Float64("weight_sum", bundle.Weights.Sum()).
			Msg("ensemble weights do not sum to 1")
	}
	log.Info().Str("bundle", bundle.Name).Str("source", name).Str("variant", string(bundle.Variant)).
		Msg("model bundle loaded")
	return bundle, nil
}
