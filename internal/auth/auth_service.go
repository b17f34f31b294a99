package auth

import (
	"context"
	"errors"
	"time"

	autherrors "go-ems/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TokenTTL = 24 * time.Hour

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	GetMe(ctx context.Context, employeeID string) (AuthResponse, error)
}

type service struct {
	repo   Repository
	secret []byte
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, secret string, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, secret: []byte(secret), now: time.Now, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
			return LoginResponse{}, err
		}
		s.logger.Warn("login unknown email")
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(password)); err != nil {
		s.logger.Warn("login wrong password", zap.String("employee_id", acc.ID.String()))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	expiresAt := s.now().Add(TokenTTL)
	token, err := s.generateToken(acc, expiresAt)
	if err != nil {
		s.logger.Error("sign token failed", zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("login success", zap.String("employee_id", acc.ID.String()), zap.String("role", acc.Role))
	return LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      mapAccount(acc),
	}, nil
}

func (s *service) GetMe(ctx context.Context, employeeID string) (AuthResponse, error) {
	id, err := uuid.Parse(employeeID)
	if err != nil {
		return AuthResponse{}, autherrors.ErrInvalidToken
	}

	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, autherrors.ErrUserNotFound
		}
		return AuthResponse{}, err
	}
	return mapAccount(acc), nil
}

func (s *service) generateToken(acc *Account, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"employee_id": acc.ID.String(),
		"email":       acc.Email,
		"role":        acc.Role,
		"iat":         s.now().Unix(),
		"exp":         expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func mapAccount(acc *Account) AuthResponse {
	return AuthResponse{
		ID:    acc.ID.String(),
		Name:  acc.Name,
		Email: acc.Email,
		Role:  acc.Role,
	}
}
