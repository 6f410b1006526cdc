package modelstore

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"overrated_products/internal/adapters/observability"
	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
)

var (
	ErrNotFound     = errors.New("model registry: not found")
	ErrUnauthorized = errors.New("model registry: unauthorized")
	ErrForbidden    = errors.New("model registry: forbidden")
)

// maxBundleBytes bounds the registry response body.
const maxBundleBytes = 32 << 20

// HTTPSource downloads the bundle from a model registry. A URI that names a
// file is fetched as is; a URI naming a directory tries bundle.yaml then
// bundle.json under it.
type HTTPSource struct {
	urls []string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func NewHTTPSource(uri string, opts Options) (*HTTPSource, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: bad registry url %q", domain.ErrModelUnavailable, uri)
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 5
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTTPSource{
		urls: candidates(uri),
		hc:   hc,
		key:  opts.APIKey,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func candidates(uri string) []string {
	switch strings.ToLower(path.Ext(strings.SplitN(uri, "?", 2)[0])) {
	case ".yaml", ".yml", ".json":
		return []string{uri}
	}
	base := strings.TrimRight(uri, "/")
	return []string{base + "/bundle.yaml", base + "/bundle.json"}
}

func (s *HTTPSource) Load(ctx context.Context) (*forecast.Bundle, error) {
	var last error
	for _, u := range s.urls {
		b, err := s.get(ctx, u)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next candidate
			}
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrModelUnavailable, u, err)
		}
		name := u
		if parsed, err := url.Parse(u); err == nil {
			name = parsed.Path
		}
		return decode(name, b)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, last)
}

// get performs a GET with client-side rate limiting and retries on 429 and
// transient 5xx, honoring Retry-After when provided.
func (s *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	if err := s.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		if s.key != "" {
			req.Header.Set("X-API-Key", s.key)
		}
		req.Header.Set("Accept", "application/yaml, application/json")
		req.Header.Set("User-Agent", "overrated-products/1.0")

		start := time.Now()
		resp, err := s.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("model_registry", "bundle", 0, time.Since(start))
			observability.ObserveExternalError("model_registry", "bundle", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("model_registry", "bundle", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleBytes))
			resp.Body.Close()
			return b, err

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Zero if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
