package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nutrition-backend/internal/shared/storage/db"
)

// SQL stores entries in the kv_entries table on Postgres or SQLite.
type SQL struct {
	DB      *sql.DB
	Dialect string
}

var (
	_ Store      = (*SQL)(nil)
	_ Transactor = (*SQL)(nil)
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQL(database *sql.DB, dialect string) *SQL {
	return &SQL{DB: database, Dialect: dialect}
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	return sqlQueries{q: s.DB, dialect: s.Dialect}.get(ctx, key)
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	return sqlQueries{q: s.DB, dialect: s.Dialect}.set(ctx, key, value)
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return sqlQueries{q: s.DB, dialect: s.Dialect}.delete(ctx, key)
}

func (s *SQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	return sqlQueries{q: s.DB, dialect: s.Dialect}.keys(ctx, prefix)
}

// WithTx runs fn inside a database transaction.
func (s *SQL) WithTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqlTx{sqlQueries{q: tx, dialect: s.Dialect}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type sqlTx struct {
	sqlQueries
}

func (t *sqlTx) Get(ctx context.Context, key string) ([]byte, error) { return t.get(ctx, key) }
func (t *sqlTx) Set(ctx context.Context, key string, value []byte) error {
	return t.set(ctx, key, value)
}
func (t *sqlTx) Delete(ctx context.Context, key string) error { return t.delete(ctx, key) }
func (t *sqlTx) Keys(ctx context.Context, prefix string) ([]string, error) {
	return t.keys(ctx, prefix)
}

type sqlQueries struct {
	q       execer
	dialect string
}

func (s sqlQueries) get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_entries WHERE key = $1`
	var value string
	err := s.q.QueryRowContext(ctx, db.Rebind(s.dialect, query), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (s sqlQueries) set(ctx context.Context, key string, value []byte) error {
	const query = `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET
  value = excluded.value,
  updated_at = CURRENT_TIMESTAMP`
	_, err := s.q.ExecContext(ctx, db.Rebind(s.dialect, query), key, string(value))
	return err
}

func (s sqlQueries) delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_entries WHERE key = $1`
	_, err := s.q.ExecContext(ctx, db.Rebind(s.dialect, query), key)
	return err
}

func (s sqlQueries) keys(ctx context.Context, prefix string) ([]string, error) {
	const query = `SELECT key FROM kv_entries WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	rows, err := s.q.QueryContext(ctx, db.Rebind(s.dialect, query), likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
