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

type LocationService interface {
	Create(ctx context.Context, location *types.Location) (*types.Location, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Location, error)
	List(ctx context.Context, activeOnly bool) ([]*types.Location, error)
	Update(ctx context.Context, location *types.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type locationService struct {
	db      *gorm.DB
	log     *logger.Logger
	locRepo repos.LocationRepo
}

func NewLocationService(db *gorm.DB, baseLog *logger.Logger, locRepo repos.LocationRepo) LocationService {
	return &locationService{
		db:      db,
		log:     baseLog.With("service", "LocationService"),
		locRepo: locRepo,
	}
}

func (s *locationService) Create(ctx context.Context, location *types.Location) (*types.Location, error) {
	if location.Name == "" {
		return nil, fmt.Errorf("location name required: %w", allocation.ErrInvalidInput)
	}
	location.ID = uuid.New()
	created, err := s.locRepo.Create(ctx, nil, location)
	if err != nil {
		s.log.Error("Create location failed", "name", location.Name, "error", err)
		return nil, err
	}
	return created, nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*types.Location, error) {
	location, err := s.locRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("location %s: %w", id, allocation.ErrNotFound)
		}
		return nil, err
	}
	return location, nil
}

func (s *locationService) List(ctx context.Context, activeOnly bool) ([]*types.Location, error) {
	return s.locRepo.List(ctx, nil, activeOnly)
}

func (s *locationService) Update(ctx context.Context, location *types.Location) error {
	if _, err := s.Get(ctx, location.ID); err != nil {
		return err
	}
	return s.locRepo.Update(ctx, nil, location)
}

func (s *locationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.locRepo.SoftDeleteByID(ctx, nil, id)
}
