package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smartpark/internal/auth"
	"smartpark/internal/clock"
	apperrors "smartpark/internal/errors"
	"smartpark/internal/repository"
)

type AdminAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	// EnsureAdmin creates the admin account if it does not exist yet.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type adminAuthService struct {
	repo   repository.AdminAuthRepository
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewAdminAuthService(repo repository.AdminAuthRepository, secret string, ttl time.Duration, clk clock.Clock) AdminAuthService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &adminAuthService{repo: repo, secret: []byte(secret), ttl: ttl, clock: clk}
}

func (s *adminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if admin == nil {
		return "", apperrors.ErrInvalidCredentials
	}
	if !checkPasswordHash(password, admin.PasswordHash) {
		return "", apperrors.ErrInvalidCredentials
	}
	return auth.IssueAdminToken(s.secret, admin.ID, admin.Email, s.clock.Now(), s.ttl)
}

func (s *adminAuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, apperrors.Invalid("email", "email and password cannot be empty")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	return s.repo.CreateAdmin(ctx, email, hash)
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
