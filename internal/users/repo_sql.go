package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"nutrition-backend/internal/shared/storage/db"
)

// SQLRepo stores users in the users table on Postgres or SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect string
}

func NewSQLRepo(database *sql.DB, dialect string) *SQLRepo {
	return &SQLRepo{DB: database, Dialect: dialect}
}

const userColumns = `id, email, name, picture, provider, password_hash, created_at, updated_at`

func (r *SQLRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, name, picture, provider, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err := r.DB.ExecContext(ctx, db.Rebind(r.Dialect, query),
		user.ID, user.Email, user.Name, user.Picture, user.Provider, user.PasswordHash)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *SQLRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, name, picture, provider, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture = EXCLUDED.picture,
  updated_at = CURRENT_TIMESTAMP`
	_, err := r.DB.ExecContext(ctx, db.Rebind(r.Dialect, query),
		user.ID, user.Email, user.Name, user.Picture, user.Provider, user.PasswordHash)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *SQLRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, db.Rebind(r.Dialect, query), userID))
}

func (r *SQLRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, db.Rebind(r.Dialect, query), email))
}

func (r *SQLRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.Provider,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// isUniqueViolation recognises duplicate-key errors from pgx and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
