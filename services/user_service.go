package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
)

type RoleOp string

const (
	RoleOpGrant  RoleOp = "grant"
	RoleOpRevoke RoleOp = "revoke"
)

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetRole выдаёт или отзывает роль пользователя. Отзыв возвращает
	// пользователя к базовой роли artist.
	SetRole(ctx context.Context, targetID uuid.UUID, role models.UserRole, op RoleOp) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) SetRole(ctx context.Context, targetID uuid.UUID, role models.UserRole, op RoleOp) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, role)
	}
	if op != RoleOpGrant && op != RoleOpRevoke {
		return nil, fmt.Errorf("%w: unknown role operation %q", ErrValidationFailed, op)
	}

	newRole := role
	if op == RoleOpRevoke {
		newRole = models.RoleArtist
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, newRole); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to set role for user %s: %w", targetID, err)
	}
	return s.GetByID(ctx, targetID)
}
