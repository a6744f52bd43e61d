package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"nutrition-backend/internal/shared/storage/db"
)

func newMockStore(t *testing.T, dialect string) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewSQL(conn, dialect), mock
}

func TestSQLGetMissingKey(t *testing.T) {
	store, mock := newMockStore(t, db.DialectPostgres)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_entries WHERE key = $1`)).
		WithArgs("user:u1:selectedFoods").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.Get(context.Background(), "user:u1:selectedFoods"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestSQLGetReturnsValue(t *testing.T) {
	store, mock := newMockStore(t, db.DialectSQLite)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_entries WHERE key = ?1`)).
		WithArgs("user:u1:nutritionGoals").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"calorieGoal":2000}`))

	got, err := store.Get(context.Background(), "user:u1:nutritionGoals")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"calorieGoal":2000}` {
		t.Fatalf("unexpected value %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestSQLSetUpserts(t *testing.T) {
	store, mock := newMockStore(t, db.DialectPostgres)
	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("user:u1:waterIntake", `{"2026-10-16":500}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Set(context.Background(), "user:u1:waterIntake", []byte(`{"2026-10-16":500}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestSQLKeysEscapesLikeWildcards(t *testing.T) {
	store, mock := newMockStore(t, db.DialectPostgres)
	mock.ExpectQuery("SELECT key FROM kv_entries WHERE key LIKE").
		WithArgs(`user:a\_b:%`).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("user:a_b:reminderSettings"))

	keys, err := store.Keys(context.Background(), "user:a_b:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "user:a_b:reminderSettings" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestSQLWithTxCommitAndRollback(t *testing.T) {
	store, mock := newMockStore(t, db.DialectPostgres)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv_entries").WithArgs("a", "1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO kv_entries").WithArgs("b", "2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(ctx, func(tx Store) error {
		if err := tx.Set(ctx, "a", []byte("1")); err != nil {
			return err
		}
		return tx.Set(ctx, "b", []byte("2"))
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}

	writeErr := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv_entries").WithArgs("a", "1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO kv_entries").WithArgs("b", "2").WillReturnError(writeErr)
	mock.ExpectRollback()

	err = store.WithTx(ctx, func(tx Store) error {
		if err := tx.Set(ctx, "a", []byte("1")); err != nil {
			return err
		}
		return tx.Set(ctx, "b", []byte("2"))
	})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
