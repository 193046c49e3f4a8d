package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	Create(ctx context.Context, user *types.User) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, allocation.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, user *types.User) (*types.User, error) {
	if user.Name == "" || user.Email == "" {
		return nil, fmt.Errorf("name and email required: %w", allocation.ErrInvalidInput)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, nil, user.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email %s already registered: %w", user.Email, allocation.ErrConflict)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user.ID = uuid.New()
	user.Active = true
	return s.userRepo.Create(ctx, nil, user)
}
