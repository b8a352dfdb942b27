package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewRepository(db), mock, func() { db.Close() }
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("f@example.com", "Farmer", "0812", "hash", RoleFarmer).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

	u := &User{Email: "f@example.com", Name: "Farmer", Phone: "0812", PasswordHash: "hash", Role: RoleFarmer}
	err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateDuplicateEmail(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRepositoryGetByEmail(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "phone", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(2, "b@example.com", "Buyer", "0813", "hash", "BUYER", now, now)
	mock.ExpectQuery(`SELECT id, email, name, phone, password_hash, role`).
		WithArgs("b@example.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, RoleBuyer, u.Role)
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, email, name, phone, password_hash, role`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
