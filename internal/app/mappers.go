package app

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"overrated_products/internal/domain"
)

/********** alias registry (single source of truth) **********/

var rowAliases = map[string][]string{
	"rating":     {"original_rating", "rating", "stars", "overall", "score"},
	"text":       {"text", "review_text", "review", "body", "content"},
	"product_id": {"product_id", "parent_asin", "asin", "product"},
	"category":   {"category", "main_category", "categories.main"},
	"month":      {"month", "date", "timestamp", "reviewed_at"},
	"source_id":  {"source_id", "review_id", "id"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstNonEmptyAlias: first non-empty scalar for a named alias set, as a string.
func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, p := range rowAliases[key] {
		var s string
		switch v := lookupAny(m, p).(type) {
		case nil:
			continue
		case string:
			s = strings.TrimSpace(v)
		case []byte:
			s = strings.TrimSpace(string(v))
		case int64, int32, int:
			s = fmt.Sprint(v)
		default:
			continue
		}
		if s != "" {
			return &s
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float/int/decimal/string like "4,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		var f float64
		switch v := lookupAny(m, k).(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int32:
			f = float64(v)
		case int64:
			f = float64(v)
		case interface{ Float64() float64 }: // driver decimals
			f = v.Float64()
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			f = n
		default:
			continue
		}
		return &f
	}
	return nil
}

var monthLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "2006-01", "2006/01/02", "01/2006"}

// getMonthFlexible: month start (UTC) from a time, a date string, or a unix
// timestamp in seconds or milliseconds.
func getMonthFlexible(m map[string]any, paths ...string) *time.Time {
	for _, k := range paths {
		var t time.Time
		switch v := lookupAny(m, k).(type) {
		case time.Time:
			t = v
		case int64:
			t = fromUnix(v)
		case float64:
			t = fromUnix(int64(v))
		case string:
			s := strings.TrimSpace(v)
			for _, layout := range monthLayouts {
				if p, err := time.Parse(layout, s); err == nil {
					t = p
					break
				}
			}
		}
		if t.IsZero() {
			continue
		}
		t = t.UTC()
		ms := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return &ms
	}
	return nil
}

func fromUnix(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e11 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

func lookupText(m map[string]any) (string, bool) {
	for _, p := range rowAliases["text"] {
		switch v := lookupAny(m, p).(type) {
		case string:
			return v, true
		case []byte:
			return string(v), true
		}
	}
	return "", false
}

/********** row mapper **********/

var (
	errMissingRating  = errors.New("missing rating")
	errMissingProduct = errors.New("missing product id")
	errMissingText    = errors.New("missing review text")
)

// mapRow turns one dataset row into a review with only its raw fields set.
// The returned review carries a SourceID even when mapping fails so the
// reject can be traced back to its row.
func mapRow(r map[string]any) (domain.Review, error) {
	var rv domain.Review

	text, hasText := lookupText(r)
	rv.Text = text
	rating := getFloatFlexible(r, rowAliases["rating"]...)
	if rating != nil {
		rv.OriginalRating = *rating
	}
	if s := firstNonEmptyAlias(r, "product_id"); s != nil {
		rv.ProductID = *s
	}
	rv.Category = firstNonEmptyAlias(r, "category")
	rv.Month = getMonthFlexible(r, rowAliases["month"]...)

	// SourceID → prefer explicit; else synthesize stable hash.
	if s := firstNonEmptyAlias(r, "source_id"); s != nil {
		rv.SourceID = *s
	} else {
		month := ""
		if rv.Month != nil {
			month = rv.Month.Format("2006-01")
		}
		sig := strings.Join([]string{rv.ProductID, text, strconv.FormatFloat(rv.OriginalRating, 'f', 3, 64), month}, "|")
		sum := sha1.Sum([]byte(sig))
		rv.SourceID = hex.EncodeToString(sum[:])
	}

	switch {
	case rating == nil:
		return rv, errMissingRating
	case rv.ProductID == "":
		return rv, errMissingProduct
	case !hasText:
		return rv, errMissingText
	}
	return rv, nil
}
