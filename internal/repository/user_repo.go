package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartpark/internal/db"
	apperrors "smartpark/internal/errors"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// GetSubscription returns nil when the user has no subscription row.
func (r *UserRepository) GetSubscription(ctx context.Context, userID string) (*db.Subscription, error) {
	var (
		s       db.Subscription
		tier    string
		expires sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
SELECT user_id, tier, status, expires_at
FROM subscriptions
WHERE user_id = $1`, userID).Scan(&s.UserID, &tier, &s.Status, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription for %s: %w", userID, err)
	}
	s.Tier = db.Tier(tier)
	s.ExpiresAt = utcPtr(expires)
	return &s, nil
}

func (r *UserRepository) GetContact(ctx context.Context, userID string) (db.UserContact, error) {
	var c db.UserContact
	err := r.DB.QueryRowContext(ctx, `SELECT id, name, email, phone FROM users WHERE id = $1`, userID).
		Scan(&c.UserID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.UserContact{}, apperrors.ErrNotFound
		}
		return db.UserContact{}, fmt.Errorf("get contact for %s: %w", userID, err)
	}
	return c, nil
}
