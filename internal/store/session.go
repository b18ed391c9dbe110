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

// sessionRowID is the fixed key of the single saved session.
const sessionRowID = 1

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Save(ctx context.Context, s Session) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(authSessionTable).
		Columns("id", "token", "email", "saved_at").
		Values(sessionRowID, s.Token, s.Email, s.SavedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Load(ctx context.Context) (*Session, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select("token", "email", "saved_at").
		From(b.Table(authSessionTable)).
		Where(entsql.EQ("id", sessionRowID)).
		Query()

	var s Session
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.Token, &s.Email, &s.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) Clear(ctx context.Context) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(authSessionTable).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
