package mysql

import (
	"strings"

	"overrated_products/internal/domain"
)

const reviewColumns = "source_id, product_id, category, month, `text`, original_rating, sentiment_score, " +
	"sentiment_label, corrected_rating, overrated_index, risk_level"

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO scored_reviews\n  (" + reviewColumns + ")\nVALUES "

const reviewPlaceholders = "(?,?,?,?,?,?,?,?,?,?,?)"

// Scores are recomputed on every ingest, so a re-ingested row replaces every
// derived column. Raw columns keep the old value when the new one is NULL.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  product_id       = VALUES(product_id),\n" +
	"  category         = COALESCE(VALUES(category), scored_reviews.category),\n" +
	"  month            = COALESCE(VALUES(month), scored_reviews.month),\n" +
	"  `text`           = VALUES(`text`),\n" +
	"  original_rating  = VALUES(original_rating),\n" +
	"  sentiment_score  = VALUES(sentiment_score),\n" +
	"  sentiment_label  = VALUES(sentiment_label),\n" +
	"  corrected_rating = VALUES(corrected_rating),\n" +
	"  overrated_index  = VALUES(overrated_index),\n" +
	"  risk_level       = VALUES(risk_level)\n"

const insertRejectSQL = `
INSERT INTO ingest_rejects (source_id, reason)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE reason = VALUES(reason), seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const selectReviewsSQL = "SELECT id, " + reviewColumns + " FROM scored_reviews"

// buildListReviews renders the explorer query for f. Every constraint is a
// bind parameter; only the fixed clause text is concatenated.
func buildListReviews(f domain.ReviewFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	in := func(col string, vals []string) {
		if len(vals) == 0 {
			return
		}
		where = append(where, col+" IN ("+strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")+")")
		for _, v := range vals {
			args = append(args, v)
		}
	}
	cmp := func(cond string, v any) {
		where = append(where, cond)
		args = append(args, v)
	}

	in("category", f.Categories)
	in("product_id", f.ProductIDs)
	if len(f.RiskLevels) > 0 {
		levels := make([]string, len(f.RiskLevels))
		for i, l := range f.RiskLevels {
			levels[i] = string(l)
		}
		in("risk_level", levels)
	}
	if f.RatingMin != nil {
		cmp("original_rating >= ?", *f.RatingMin)
	}
	if f.RatingMax != nil {
		cmp("original_rating <= ?", *f.RatingMax)
	}
	if f.SentimentMin != nil {
		cmp("sentiment_score >= ?", *f.SentimentMin)
	}
	if f.SentimentMax != nil {
		cmp("sentiment_score <= ?", *f.SentimentMax)
	}
	if f.MonthFrom != nil {
		cmp("month >= ?", *f.MonthFrom)
	}
	if f.MonthTo != nil {
		cmp("month <= ?", *f.MonthTo)
	}

	var b strings.Builder
	b.WriteString(selectReviewsSQL)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY overrated_index DESC, id")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return b.String(), args
}
