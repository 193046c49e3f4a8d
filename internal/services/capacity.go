package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/cache"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// CapacityService maintains monthly capacity ceilings and reports occupancy:
// planned capacity vs the quantity the monthly ledger already allocates. A
// consumer of the ledger, never a writer.
type CapacityService interface {
	Upsert(ctx context.Context, cap *types.LocationCapacity) error
	ListForLocation(ctx context.Context, locationID uuid.UUID) ([]*types.LocationCapacity, error)
	// Occupancy computes the figure for one bucket, reading through the
	// redis cache when one is configured.
	Occupancy(ctx context.Context, locationID uuid.UUID, month, year int) (*cache.Occupancy, error)
	OccupancyForLocation(ctx context.Context, locationID uuid.UUID) ([]*cache.Occupancy, error)
}

type capacityService struct {
	db         *gorm.DB
	log        *logger.Logger
	capRepo    repos.LocationCapacityRepo
	ledgerRepo repos.MonthlyAllocationRepo
	locRepo    repos.LocationRepo
	cache      cache.OccupancyCache
}

func NewCapacityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	capRepo repos.LocationCapacityRepo,
	ledgerRepo repos.MonthlyAllocationRepo,
	locRepo repos.LocationRepo,
	occupancyCache cache.OccupancyCache,
) CapacityService {
	return &capacityService{
		db:         db,
		log:        baseLog.With("service", "CapacityService"),
		capRepo:    capRepo,
		ledgerRepo: ledgerRepo,
		locRepo:    locRepo,
		cache:      occupancyCache,
	}
}

func (s *capacityService) Upsert(ctx context.Context, cap *types.LocationCapacity) error {
	if cap.Month < 1 || cap.Month > 12 {
		return fmt.Errorf("month must be 1-12: %w", allocation.ErrInvalidInput)
	}
	if cap.Capacity < 0 {
		return fmt.Errorf("capacity must be non-negative: %w", allocation.ErrInvalidInput)
	}
	ok, err := s.locRepo.ExistsByID(ctx, nil, cap.LocationID)
	if err != nil {
		return fmt.Errorf("check location: %w", err)
	}
	if !ok {
		return fmt.Errorf("location %s: %w", cap.LocationID, allocation.ErrNotFound)
	}
	if cap.ID == uuid.Nil {
		cap.ID = uuid.New()
	}
	if err := s.capRepo.Upsert(ctx, nil, cap); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, cap.LocationID, cap.Month, cap.Year)
	}
	return nil
}

func (s *capacityService) ListForLocation(ctx context.Context, locationID uuid.UUID) ([]*types.LocationCapacity, error) {
	return s.capRepo.GetByLocationID(ctx, nil, locationID)
}

func (s *capacityService) Occupancy(ctx context.Context, locationID uuid.UUID, month, year int) (*cache.Occupancy, error) {
	if s.cache != nil {
		if occ, ok := s.cache.Get(ctx, locationID, month, year); ok {
			return occ, nil
		}
	}
	occ, err := s.computeOccupancy(ctx, locationID, month, year)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, occ)
	}
	return occ, nil
}

func (s *capacityService) OccupancyForLocation(ctx context.Context, locationID uuid.UUID) ([]*cache.Occupancy, error) {
	caps, err := s.capRepo.GetByLocationID(ctx, nil, locationID)
	if err != nil {
		return nil, err
	}
	results := make([]*cache.Occupancy, 0, len(caps))
	for _, c := range caps {
		occ, err := s.Occupancy(ctx, locationID, c.Month, c.Year)
		if err != nil {
			return nil, err
		}
		results = append(results, occ)
	}
	return results, nil
}

func (s *capacityService) computeOccupancy(ctx context.Context, locationID uuid.UUID, month, year int) (*cache.Occupancy, error) {
	allocated, err := s.ledgerRepo.SumQuantityByLocationMonth(ctx, nil, locationID, month, year)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}

	// With no period-specific ceiling the location's default capacity applies.
	capacity := 0
	capRow, err := s.capRepo.GetByLocationMonth(ctx, nil, locationID, month, year)
	switch {
	case err == nil:
		capacity = capRow.Capacity
	case errors.Is(err, gorm.ErrRecordNotFound):
		loc, locErr := s.locRepo.GetByID(ctx, nil, locationID)
		if locErr != nil {
			if errors.Is(locErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("location %s: %w", locationID, allocation.ErrNotFound)
			}
			return nil, locErr
		}
		capacity = loc.Capacity
	default:
		return nil, fmt.Errorf("load capacity: %w", err)
	}

	occ := &cache.Occupancy{
		LocationID: locationID,
		Month:      month,
		Year:       year,
		Capacity:   capacity,
		Allocated:  allocated,
		Balance:    int64(capacity) - allocated,
	}
	if capacity > 0 {
		occ.Percent = math.Round(float64(allocated)/float64(capacity)*10000) / 100
	}
	return occ, nil
}
