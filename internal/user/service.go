package user

import (
	"context"

	"agromart-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, name, phone, password string, role Role) (*User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, name, phone, password string, role Role) (*User, error) {
	switch role {
	case RoleFarmer, RoleBuyer, RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        email,
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("user registered",
		zap.Int64("user_id", u.ID),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, string(u.Role), u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
