package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// AllocationService is the single entry point handlers and the operator CLI
// use for association-row mutations, ledger reads, diagnosis and repair. All
// writes go through the allocation store so reconciliation is never skipped.
type AllocationService interface {
	Assign(ctx context.Context, in allocation.AssignInput) (*types.ProductLocation, error)
	Update(ctx context.Context, rowID uuid.UUID, in allocation.UpdateInput) (*types.ProductLocation, error)
	Remove(ctx context.Context, rowID uuid.UUID, userID uuid.UUID) error
	ListActive(ctx context.Context, productID uuid.UUID) ([]*types.ProductLocation, error)
	ListAll(ctx context.Context, productID uuid.UUID) ([]*types.ProductLocation, error)
	Ledger(ctx context.Context, productID uuid.UUID) ([]*types.MonthlyAllocation, error)
	Check(ctx context.Context, productID uuid.UUID) (*allocation.Report, error)
	Rebuild(ctx context.Context, productID uuid.UUID, userID uuid.UUID) (*allocation.RebuildResult, error)
}

type allocationService struct {
	db         *gorm.DB
	log        *logger.Logger
	store      allocation.Store
	checker    allocation.Checker
	rebuilder  allocation.Rebuilder
	rowRepo    repos.ProductLocationRepo
	ledgerRepo repos.MonthlyAllocationRepo
}

func NewAllocationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	store allocation.Store,
	checker allocation.Checker,
	rebuilder allocation.Rebuilder,
	rowRepo repos.ProductLocationRepo,
	ledgerRepo repos.MonthlyAllocationRepo,
) AllocationService {
	return &allocationService{
		db:         db,
		log:        baseLog.With("service", "AllocationService"),
		store:      store,
		checker:    checker,
		rebuilder:  rebuilder,
		rowRepo:    rowRepo,
		ledgerRepo: ledgerRepo,
	}
}

func (s *allocationService) Assign(ctx context.Context, in allocation.AssignInput) (*types.ProductLocation, error) {
	return s.store.Assign(ctx, in)
}

func (s *allocationService) Update(ctx context.Context, rowID uuid.UUID, in allocation.UpdateInput) (*types.ProductLocation, error) {
	return s.store.Update(ctx, rowID, in)
}

func (s *allocationService) Remove(ctx context.Context, rowID uuid.UUID, userID uuid.UUID) error {
	return s.store.SoftDelete(ctx, rowID, userID)
}

func (s *allocationService) ListActive(ctx context.Context, productID uuid.UUID) ([]*types.ProductLocation, error) {
	return s.store.ListActive(ctx, productID)
}

func (s *allocationService) ListAll(ctx context.Context, productID uuid.UUID) ([]*types.ProductLocation, error) {
	return s.rowRepo.GetAllByProductID(ctx, nil, productID)
}

func (s *allocationService) Ledger(ctx context.Context, productID uuid.UUID) ([]*types.MonthlyAllocation, error) {
	return s.ledgerRepo.GetByProductID(ctx, nil, productID)
}

func (s *allocationService) Check(ctx context.Context, productID uuid.UUID) (*allocation.Report, error) {
	return s.checker.Check(ctx, productID)
}

func (s *allocationService) Rebuild(ctx context.Context, productID uuid.UUID, userID uuid.UUID) (*allocation.RebuildResult, error) {
	return s.rebuilder.Rebuild(ctx, productID, userID)
}
