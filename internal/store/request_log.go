package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type requestLogRepo struct {
	db *sql.DB
}

func (r *requestLogRepo) Append(ctx context.Context, ev RequestEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(requestEventTable).
		Columns("op", "target", "status_code", "latency_ms", "success", "error_message", "request_id", "created_at").
		Values(ev.Op, ev.Target, ev.StatusCode, ev.LatencyMs, ev.Success, ev.ErrorMessage, ev.RequestID, ev.CreatedAt.UTC()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save request event: %w", err)
	}
	return nil
}

func (r *requestLogRepo) Query(ctx context.Context, opts QueryOpts) ([]RequestEvent, error) {
	b := entsql.Dialect(dialect.SQLite)
	sel := b.Select("id", "op", "target", "status_code", "latency_ms", "success", "error_message", "request_id", "created_at").
		From(b.Table(requestEventTable)).
		OrderBy(entsql.Desc("id"))
	if p := opts.where(); p != nil {
		sel.Where(p)
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request events: %w", err)
	}
	defer rows.Close()

	var out []RequestEvent
	for rows.Next() {
		var ev RequestEvent
		if err := rows.Scan(&ev.ID, &ev.Op, &ev.Target, &ev.StatusCode, &ev.LatencyMs,
			&ev.Success, &ev.ErrorMessage, &ev.RequestID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *requestLogRepo) Stats(ctx context.Context, opts QueryOpts) ([]RequestStat, error) {
	b := entsql.Dialect(dialect.SQLite)
	sel := b.Select(
		"op",
		entsql.As(entsql.Count("*"), "total"),
		entsql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
	).
		From(b.Table(requestEventTable)).
		GroupBy("op").
		OrderBy("op")
	if p := opts.where(); p != nil {
		sel.Where(p)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request stats: %w", err)
	}
	defer rows.Close()

	var out []RequestStat
	for rows.Next() {
		var (
			st  RequestStat
			avg sql.NullFloat64
		)
		if err := rows.Scan(&st.Op, &st.Count, &st.Failures, &avg); err != nil {
			return nil, fmt.Errorf("scan request stats: %w", err)
		}
		st.AvgLatencyMs = avg.Float64
		out = append(out, st)
	}
	return out, rows.Err()
}

func (o QueryOpts) where() *entsql.Predicate {
	var preds []*entsql.Predicate
	if o.Op != "" {
		preds = append(preds, entsql.EQ("op", o.Op))
	}
	if !o.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", o.From.UTC()))
	}
	if o.FailedOnly {
		preds = append(preds, entsql.EQ("success", false))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return entsql.And(preds...)
	}
}
