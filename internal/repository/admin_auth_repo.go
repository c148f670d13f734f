package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
}

type AdminAuthRepository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	// CreateAdmin stores a pre-hashed password. It reports false when the email already exists.
	CreateAdmin(ctx context.Context, email, passwordHash string) (bool, error)
}

type adminAuthRepository struct {
	db *sql.DB
}

func NewAdminAuthRepository(db *sql.DB) AdminAuthRepository {
	return &adminAuthRepository{db: db}
}

func (r *adminAuthRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	var admin Admin
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash FROM admins WHERE email = $1`, email).
		Scan(&admin.ID, &admin.Email, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

func (r *adminAuthRepository) CreateAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		email, passwordHash)
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return n > 0, nil
}
