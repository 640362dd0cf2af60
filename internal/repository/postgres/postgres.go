// Package postgres implements repository.Store on PostgreSQL using pgx
// directly (no ORM) and squirrel for the filtered searches.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

const uniqueViolation = "23505"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements repository.Querier over any dbtx.
type queries struct {
	db dbtx
	sb sq.StatementBuilderType
}

func newQueries(db dbtx) *queries {
	return &queries{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Store is the PostgreSQL-backed repository.Store.
type Store struct {
	*queries
	pool *pgxpool.Pool
}

// New constructs a Store on an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: newQueries(pool), pool: pool}
}

// WithEventLock runs fn inside a transaction that holds a row-level lock on
// the event. A second caller blocks on SELECT ... FOR UPDATE until the first
// commits or rolls back, so the confirmed count it reads includes every write
// committed before it.
func (s *Store) WithEventLock(ctx context.Context, eventID int64, fn func(q repository.Querier, ev *model.Event) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	q := newQueries(tx)
	ev, err := q.getEvent(ctx, eventID, true)
	if err != nil {
		return err
	}
	if err = fn(q, ev); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// translate maps storage faults the service must understand onto repository
// sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
