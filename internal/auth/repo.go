package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noticeboard-app/noticeboard/internal/shared"
)

// CreateUserParams carries the fields of a new user record.
type CreateUserParams struct {
	Login        string
	PasswordHash string
	AvatarPath   string
	PhoneNumber  string
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	// FindByLogin returns the user with the given login, or
	// shared.ErrNotFound when no such user exists.
	FindByLogin(ctx context.Context, login string) (*User, error)

	// Create inserts a fully populated user record. The database unique
	// constraint on login is authoritative: a concurrent insert that wins
	// the race surfaces as shared.ErrDuplicateLogin even when the caller's
	// pre-check passed.
	Create(ctx context.Context, params CreateUserParams) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByLogin fetches a user by login.
func (r *PGRepository) FindByLogin(ctx context.Context, login string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, login, password_hash, COALESCE(avatar_path, ''), COALESCE(phone_number, ''), created_at
		FROM users
		WHERE login = $1
	`, login)

	var user User
	if err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &user.AvatarPath, &user.PhoneNumber, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user row.
func (r *PGRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (login, password_hash, avatar_path, phone_number)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id, login, password_hash, COALESCE(avatar_path, ''), COALESCE(phone_number, ''), created_at
	`, params.Login, params.PasswordHash, params.AvatarPath, params.PhoneNumber)

	var user User
	if err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &user.AvatarPath, &user.PhoneNumber, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, shared.ErrDuplicateLogin
		}
		return nil, err
	}
	return &user, nil
}

// AvatarPathInUse reports whether any user record references the stored
// upload path. Used by the orphaned-upload sweep.
func (r *PGRepository) AvatarPathInUse(ctx context.Context, path string) (bool, error) {
	var inUse bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE avatar_path = $1)`, path).Scan(&inUse)
	if err != nil {
		return false, err
	}
	return inUse, nil
}

var _ Repository = (*PGRepository)(nil)
