package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ProgressCacheRepo stores opaque progress payloads keyed by namespace.
type ProgressCacheRepo struct {
	db *sql.DB
}

// Get returns the payload stored under namespace. ok is false when no
// entry exists.
func (r *ProgressCacheRepo) Get(ctx context.Context, namespace string) ([]byte, bool, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select("payload").
		From(b.Table(progressCacheTable)).
		Where(entsql.EQ("namespace", namespace)).
		Query()

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read progress cache: %w", err)
	}
	return payload, true, nil
}

// Put replaces the payload stored under namespace.
func (r *ProgressCacheRepo) Put(ctx context.Context, namespace string, payload []byte) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(progressCacheTable).
		Columns("namespace", "payload", "updated_at").
		Values(namespace, payload, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("namespace"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write progress cache: %w", err)
	}
	return nil
}

func (r *ProgressCacheRepo) Delete(ctx context.Context, namespace string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(progressCacheTable).
		Where(entsql.EQ("namespace", namespace)).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete progress cache: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry whose namespace starts with prefix and
// returns how many were removed.
func (r *ProgressCacheRepo) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(progressCacheTable).
		Where(entsql.HasPrefix("namespace", prefix)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete progress cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete progress cache: %w", err)
	}
	return int(n), nil
}
