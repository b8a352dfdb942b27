package user

import (
	"context"
	"database/sql"
	"errors"

	"agromart-be/internal/db"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Name, u.Phone, u.PasswordHash, u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return ErrEmailExists
	}
	return db.Classify(err)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, email, name, phone, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email))
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, email, name, phone, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

func (r *repository) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &u, nil
}
