package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"overrated_products/internal/app"
	"overrated_products/internal/domain"
	"overrated_products/internal/reporting"
	"overrated_products/internal/scoring"
	"overrated_products/internal/validation"
)

type Handlers struct {
	S *app.ScoringService
	Q *app.QueryService
}

type problem struct {
	Type   string                  `json:"type"`
	Title  string                  `json:"title"`
	Status int                     `json:"status"`
	Detail string                  `json:"detail,omitempty"`
	Errors []validation.FieldError `json:"errors,omitempty"`
}

const maxScoreBody = 1 << 20

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.With(RateLimit(s.opts.ScoreRateLimit)).Post("/v1/score", h.score)
	s.mux.Get("/v1/reviews", h.explore)
	s.mux.Route("/v1/reports", func(r chi.Router) {
		r.Get("/overview", report(h.Q.Overview))
		r.Get("/sentiment", report(h.Q.Sentiment))
		r.Get("/products", report(h.Q.Products))
		r.Get("/categories", report(h.Q.Categories))
		r.Get("/risk", report(h.Q.Risk))
		r.Get("/forecast-impact", report(h.Q.ForecastImpact))
		r.Get("/models", func(w http.ResponseWriter, r *http.Request) { writeJSONWithETag(w, r, h.Q.ModelMetrics()) })
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string, fields []validation.FieldError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Errors: fields}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	var ierr *scoring.InputError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", verr.Error(), verr.Fields)
	case errors.As(err, &ierr):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Input", ierr.Error(),
			[]validation.FieldError{{Field: ierr.Field, Tag: "range", Message: ierr.Reason}})
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Input", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), nil)
	case errors.Is(err, domain.ErrModelUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Model Unavailable", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func report[T any](get func(ctx context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSONWithETag(w, r, out)
	}
}

// ---- POST /v1/score ----

type scoreRequest struct {
	Text   *string  `json:"text" validate:"required,max=20000"`
	Rating *float64 `json:"rating" validate:"required"`
}

type scoreResponse struct {
	Rating float64 `json:"rating"`
	scoring.Result
}

func (h *Handlers) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed Body", err.Error(), nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.S.Score(r.Context(), *req.Text, *req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(scoreResponse{Rating: *req.Rating, Result: res}); err != nil {
		log.Error().Err(err).Msg("failed to write score body")
	}
}

// ---- GET /v1/reviews ----

type exploreQuery struct {
	Categories   []string   `query:"category"`
	ProductIDs   []string   `query:"product_id"`
	RatingMin    *float64   `query:"rating_min" validate:"omitempty,gte=1,lte=5"`
	RatingMax    *float64   `query:"rating_max" validate:"omitempty,gte=1,lte=5"`
	SentimentMin *float64   `query:"sentiment_min" validate:"omitempty,gte=-1,lte=1"`
	SentimentMax *float64   `query:"sentiment_max" validate:"omitempty,gte=-1,lte=1"`
	Risk         []string   `query:"risk" validate:"dive,oneof=Low Medium High"`
	MonthFrom    *time.Time `query:"month_from"`
	MonthTo      *time.Time `query:"month_to"`
	Limit        int        `query:"limit" validate:"gte=0,lte=1000"`
}

type reviewView struct {
	ID              int64                 `json:"id"`
	SourceID        string                `json:"source_id"`
	ProductID       string                `json:"product_id"`
	Category        *string               `json:"category,omitempty"`
	Month           string                `json:"month,omitempty"`
	Text            string                `json:"text"`
	OriginalRating  float64               `json:"original_rating"`
	SentimentScore  float64               `json:"sentiment_score"`
	SentimentLabel  domain.SentimentLabel `json:"sentiment_label"`
	CorrectedRating float64               `json:"corrected_rating"`
	OverratedIndex  float64               `json:"overrated_index"`
	RiskLevel       domain.RiskLevel      `json:"risk_level"`
}

type exploreResponse struct {
	Summary reporting.Summary `json:"summary"`
	Reviews []reviewView      `json:"reviews"`
}

func (h *Handlers) explore(w http.ResponseWriter, r *http.Request) {
	q, err := parseExploreQuery(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Query", err.Error(), nil)
		return
	}
	if err := validation.Struct(&q); err != nil {
		writeError(w, err)
		return
	}
	if fields := rangeErrors(q); len(fields) > 0 {
		writeError(w, &validation.Error{Fields: fields})
		return
	}

	rs, sum, err := h.Q.Explore(r.Context(), q.filter())
	if err != nil {
		writeError(w, err)
		return
	}
	out := exploreResponse{Summary: sum, Reviews: make([]reviewView, len(rs))}
	for i, rv := range rs {
		out.Reviews[i] = toView(rv)
	}
	writeJSONWithETag(w, r, out)
}

func toView(rv domain.Review) reviewView {
	v := reviewView{
		ID:              rv.ID,
		SourceID:        rv.SourceID,
		ProductID:       rv.ProductID,
		Category:        rv.Category,
		Text:            rv.Text,
		OriginalRating:  rv.OriginalRating,
		SentimentScore:  rv.SentimentScore,
		SentimentLabel:  rv.SentimentLabel,
		CorrectedRating: scoring.Round2(rv.CorrectedRating),
		OverratedIndex:  rv.OverratedIndex,
		RiskLevel:       rv.RiskLevel,
	}
	if rv.Month != nil {
		v.Month = rv.Month.Format("2006-01")
	}
	return v
}

func (q exploreQuery) filter() domain.ReviewFilter {
	f := domain.ReviewFilter{
		Categories:   q.Categories,
		ProductIDs:   q.ProductIDs,
		RatingMin:    q.RatingMin,
		RatingMax:    q.RatingMax,
		SentimentMin: q.SentimentMin,
		SentimentMax: q.SentimentMax,
		MonthFrom:    q.MonthFrom,
		MonthTo:      q.MonthTo,
		Limit:        q.Limit,
	}
	for _, l := range q.Risk {
		f.RiskLevels = append(f.RiskLevels, domain.RiskLevel(l))
	}
	return f
}

func rangeErrors(q exploreQuery) []validation.FieldError {
	var out []validation.FieldError
	if q.RatingMin != nil && q.RatingMax != nil && *q.RatingMin > *q.RatingMax {
		out = append(out, validation.FieldError{Field: "rating_max", Tag: "range", Message: "rating_max must not be below rating_min"})
	}
	if q.SentimentMin != nil && q.SentimentMax != nil && *q.SentimentMin > *q.SentimentMax {
		out = append(out, validation.FieldError{Field: "sentiment_max", Tag: "range", Message: "sentiment_max must not be below sentiment_min"})
	}
	if q.MonthFrom != nil && q.MonthTo != nil && q.MonthFrom.After(*q.MonthTo) {
		out = append(out, validation.FieldError{Field: "month_to", Tag: "range", Message: "month_to must not be before month_from"})
	}
	return out
}

// parseExploreQuery accepts repeated or comma separated list parameters and
// months as YYYY-MM.
func parseExploreQuery(v url.Values) (exploreQuery, error) {
	var (
		q   exploreQuery
		err error
	)
	q.Categories = multi(v, "category")
	q.ProductIDs = multi(v, "product_id")
	q.Risk = multi(v, "risk")
	for _, p := range []struct {
		key string
		dst **float64
	}{
		{"rating_min", &q.RatingMin}, {"rating_max", &q.RatingMax},
		{"sentiment_min", &q.SentimentMin}, {"sentiment_max", &q.SentimentMax},
	} {
		if *p.dst, err = optFloat(v, p.key); err != nil {
			return q, err
		}
	}
	if q.MonthFrom, err = optMonth(v, "month_from"); err != nil {
		return q, err
	}
	if q.MonthTo, err = optMonth(v, "month_to"); err != nil {
		return q, err
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("limit must be an integer")
		}
	}
	return q, nil
}

func multi(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func optFloat(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func optMonth(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM", key)
	}
	return &t, nil
}
