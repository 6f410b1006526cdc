package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "overrated"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "external_requests_total", Help: "Outbound requests (model registry, object storage)."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	ExternalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "external_errors_total", Help: "Outbound calls that failed before a response, by error type."},
		[]string{"service", "endpoint", "error"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	Scores = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "scores_total", Help: "Scored reviews by risk level."},
		[]string{"path", "risk", "overrated"}, // path: api|ingest
	)
	Sentiment = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "sentiment_score",
			Help:    "Compound sentiment of scored texts.",
			Buckets: prometheus.LinearBuckets(-1, 0.25, 9),
		},
	)
	IngestRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ingest_records_total", Help: "Ingested dataset rows by outcome."},
		[]string{"outcome"}, // outcome: stored|rejected|failed
	)
)

// Serve exposes reg on addr in the background. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, ExternalErrors, CacheEvents,
		Scores, Sentiment, IngestRecords)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

// ObserveExternalError counts a transport failure; status-bearing failures go
// through ObserveExternal.
func ObserveExternalError(service, endpoint string, err error) {
	ExternalErrors.WithLabelValues(service, endpoint, LabelErr(err)).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveScore(path, risk string, overrated bool, sentiment float64) {
	Scores.WithLabelValues(path, risk, strconv.FormatBool(overrated)).Inc()
	Sentiment.Observe(sentiment)
}

func ObserveIngest(outcome string, n int) { // outcome: stored|rejected|failed
	if n > 0 {
		IngestRecords.WithLabelValues(outcome).Add(float64(n))
	}
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
