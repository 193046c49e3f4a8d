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

// CatalogService groups the small reference entities the product form feeds
// from: brands, fabrics, designers, product groups and statuses.
type CatalogService interface {
	CreateBrand(ctx context.Context, brand *types.Brand) (*types.Brand, error)
	GetBrand(ctx context.Context, id uuid.UUID) (*types.Brand, error)
	ListBrands(ctx context.Context, activeOnly bool) ([]*types.Brand, error)
	UpdateBrand(ctx context.Context, brand *types.Brand) error
	DeleteBrand(ctx context.Context, id uuid.UUID) error

	CreateFabric(ctx context.Context, fabric *types.Fabric) (*types.Fabric, error)
	GetFabric(ctx context.Context, id uuid.UUID) (*types.Fabric, error)
	ListFabrics(ctx context.Context, activeOnly bool) ([]*types.Fabric, error)
	UpdateFabric(ctx context.Context, fabric *types.Fabric) error
	DeleteFabric(ctx context.Context, id uuid.UUID) error

	CreateDesigner(ctx context.Context, designer *types.Designer) (*types.Designer, error)
	ListDesigners(ctx context.Context, activeOnly bool) ([]*types.Designer, error)
	CreateGroup(ctx context.Context, group *types.ProductGroup) (*types.ProductGroup, error)
	ListGroups(ctx context.Context, activeOnly bool) ([]*types.ProductGroup, error)
	CreateStatus(ctx context.Context, status *types.Status) (*types.Status, error)
	ListStatuses(ctx context.Context, activeOnly bool) ([]*types.Status, error)
}

type catalogService struct {
	db           *gorm.DB
	log          *logger.Logger
	brandRepo    repos.BrandRepo
	fabricRepo   repos.FabricRepo
	designerRepo repos.DesignerRepo
	groupRepo    repos.ProductGroupRepo
	statusRepo   repos.StatusRepo
}

func NewCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	brandRepo repos.BrandRepo,
	fabricRepo repos.FabricRepo,
	designerRepo repos.DesignerRepo,
	groupRepo repos.ProductGroupRepo,
	statusRepo repos.StatusRepo,
) CatalogService {
	return &catalogService{
		db:           db,
		log:          baseLog.With("service", "CatalogService"),
		brandRepo:    brandRepo,
		fabricRepo:   fabricRepo,
		designerRepo: designerRepo,
		groupRepo:    groupRepo,
		statusRepo:   statusRepo,
	}
}

func (s *catalogService) CreateBrand(ctx context.Context, brand *types.Brand) (*types.Brand, error) {
	if brand.Name == "" {
		return nil, fmt.Errorf("brand name required: %w", allocation.ErrInvalidInput)
	}
	brand.ID = uuid.New()
	return s.brandRepo.Create(ctx, nil, brand)
}

func (s *catalogService) GetBrand(ctx context.Context, id uuid.UUID) (*types.Brand, error) {
	brand, err := s.brandRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("brand %s: %w", id, allocation.ErrNotFound)
		}
		return nil, err
	}
	return brand, nil
}

func (s *catalogService) ListBrands(ctx context.Context, activeOnly bool) ([]*types.Brand, error) {
	return s.brandRepo.List(ctx, nil, activeOnly)
}

func (s *catalogService) UpdateBrand(ctx context.Context, brand *types.Brand) error {
	if _, err := s.GetBrand(ctx, brand.ID); err != nil {
		return err
	}
	return s.brandRepo.Update(ctx, nil, brand)
}

func (s *catalogService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetBrand(ctx, id); err != nil {
		return err
	}
	return s.brandRepo.SoftDeleteByID(ctx, nil, id)
}

func (s *catalogService) CreateFabric(ctx context.Context, fabric *types.Fabric) (*types.Fabric, error) {
	if fabric.Name == "" {
		return nil, fmt.Errorf("fabric name required: %w", allocation.ErrInvalidInput)
	}
	fabric.ID = uuid.New()
	return s.fabricRepo.Create(ctx, nil, fabric)
}

func (s *catalogService) GetFabric(ctx context.Context, id uuid.UUID) (*types.Fabric, error) {
	fabric, err := s.fabricRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fabric %s: %w", id, allocation.ErrNotFound)
		}
		return nil, err
	}
	return fabric, nil
}

func (s *catalogService) ListFabrics(ctx context.Context, activeOnly bool) ([]*types.Fabric, error) {
	return s.fabricRepo.List(ctx, nil, activeOnly)
}

func (s *catalogService) UpdateFabric(ctx context.Context, fabric *types.Fabric) error {
	if _, err := s.GetFabric(ctx, fabric.ID); err != nil {
		return err
	}
	return s.fabricRepo.Update(ctx, nil, fabric)
}

func (s *catalogService) DeleteFabric(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetFabric(ctx, id); err != nil {
		return err
	}
	return s.fabricRepo.SoftDeleteByID(ctx, nil, id)
}

func (s *catalogService) CreateDesigner(ctx context.Context, designer *types.Designer) (*types.Designer, error) {
	if designer.Name == "" {
		return nil, fmt.Errorf("designer name required: %w", allocation.ErrInvalidInput)
	}
	designer.ID = uuid.New()
	return s.designerRepo.Create(ctx, nil, designer)
}

func (s *catalogService) ListDesigners(ctx context.Context, activeOnly bool) ([]*types.Designer, error) {
	return s.designerRepo.List(ctx, nil, activeOnly)
}

func (s *catalogService) CreateGroup(ctx context.Context, group *types.ProductGroup) (*types.ProductGroup, error) {
	if group.Description == "" {
		return nil, fmt.Errorf("group description required: %w", allocation.ErrInvalidInput)
	}
	group.ID = uuid.New()
	return s.groupRepo.Create(ctx, nil, group)
}

func (s *catalogService) ListGroups(ctx context.Context, activeOnly bool) ([]*types.ProductGroup, error) {
	return s.groupRepo.List(ctx, nil, activeOnly)
}

func (s *catalogService) CreateStatus(ctx context.Context, status *types.Status) (*types.Status, error) {
	if status.Description == "" {
		return nil, fmt.Errorf("status description required: %w", allocation.ErrInvalidInput)
	}
	status.ID = uuid.New()
	return s.statusRepo.Create(ctx, nil, status)
}

func (s *catalogService) ListStatuses(ctx context.Context, activeOnly bool) ([]*types.Status, error) {
	return s.statusRepo.List(ctx, nil, activeOnly)
}
