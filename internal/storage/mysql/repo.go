package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"overrated_products/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

// maxRowsPerInsert keeps a multi-row upsert well under the server's
// placeholder and packet limits.
const maxRowsPerInsert = 500

const maxReasonLen = 255

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertReviews writes rs in chunks inside one transaction, so a batch is
// stored entirely or not at all.
func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(rs); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(rs))
		chunk := rs[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*11) // 11 params per row
		for _, rv := range chunk {
			values = append(values, reviewPlaceholders)
			args = append(args,
				rv.SourceID,
				rv.ProductID,
				valStr(rv.Category),
				valTime(rv.Month),
				rv.Text,
				rv.OriginalRating,
				rv.SentimentScore,
				string(rv.SentimentLabel),
				rv.CorrectedRating,
				rv.OverratedIndex,
				string(rv.RiskLevel),
			)
		}
		sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("upsert rows %d-%d: %w", start, end-1, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LogReject(ctx context.Context, rj domain.Reject) error {
	reason := rj.Reason
	if len(reason) > maxReasonLen {
		reason = reason[:maxReasonLen]
	}
	_, err := r.db.ExecContext(ctx, insertRejectSQL, rj.SourceID, reason)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, error) {
	q, args := buildListReviews(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv       domain.Review
			category sql.NullString
			month    sql.NullTime
			label    string
			risk     string
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.SourceID,
			&rv.ProductID,
			&category,
			&month,
			&rv.Text,
			&rv.OriginalRating,
			&rv.SentimentScore,
			&label,
			&rv.CorrectedRating,
			&rv.OverratedIndex,
			&risk,
		); err != nil {
			return nil, err
		}
		if category.Valid {
			c := category.String
			rv.Category = &c
		}
		if month.Valid {
			m := month.Time.UTC()
			rv.Month = &m
		}
		rv.SentimentLabel = domain.SentimentLabel(label)
		rv.RiskLevel = domain.RiskLevel(risk)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }
