package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// OccupancyInvalidator drops cached occupancy figures for a (location, month,
// year) bucket. Called after a reconciling transaction commits, never inside
// it: a cache miss is recoverable, a phantom invalidation is not.
type OccupancyInvalidator interface {
	Invalidate(ctx context.Context, locationID uuid.UUID, month, year int)
}

type AssignInput struct {
	ProductID       uuid.UUID
	LocationID      uuid.UUID
	Quantity        int
	TargetDate      *time.Time
	ProductionOrder string
	Note            string
	UserID          uuid.UUID
}

// UpdateInput mutates only the non-nil fields. ClearTargetDate removes the
// date (making the row ineligible) since a nil TargetDate alone means
// "leave unchanged".
type UpdateInput struct {
	Quantity        *int
	TargetDate      *time.Time
	ClearTargetDate bool
	ProductionOrder *string
	Note            *string
	UserID          uuid.UUID
}

// Store is the authoritative record of product-location assignments. Every
// mutation reconciles the monthly ledger synchronously inside one transaction;
// if the ledger write fails the association write rolls back with it.
type Store interface {
	Assign(ctx context.Context, in AssignInput) (*types.ProductLocation, error)
	Update(ctx context.Context, rowID uuid.UUID, in UpdateInput) (*types.ProductLocation, error)
	SoftDelete(ctx context.Context, rowID uuid.UUID, userID uuid.UUID) error
	ListActive(ctx context.Context, productID uuid.UUID) ([]*types.ProductLocation, error)
}

type store struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	locRepo     repos.LocationRepo
	rowRepo     repos.ProductLocationRepo
	reconciler  Reconciler
	invalidator OccupancyInvalidator
}

func NewStore(
	db *gorm.DB,
	baseLog *logger.Logger,
	productRepo repos.ProductRepo,
	locRepo repos.LocationRepo,
	rowRepo repos.ProductLocationRepo,
	reconciler Reconciler,
	invalidator OccupancyInvalidator,
) Store {
	return &store{
		db:          db,
		log:         baseLog.With("component", "AllocationStore"),
		productRepo: productRepo,
		locRepo:     locRepo,
		rowRepo:     rowRepo,
		reconciler:  reconciler,
		invalidator: invalidator,
	}
}

func (s *store) Assign(ctx context.Context, in AssignInput) (*types.ProductLocation, error) {
	if in.Quantity < 0 {
		return nil, fmt.Errorf("quantity must be non-negative: %w", ErrInvalidInput)
	}
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("acting user required: %w", ErrInvalidInput)
	}
	if err := s.checkRefs(ctx, in.ProductID, in.LocationID); err != nil {
		return nil, err
	}

	row := &types.ProductLocation{
		ID:              uuid.New(),
		ProductID:       in.ProductID,
		LocationID:      in.LocationID,
		Quantity:        in.Quantity,
		TargetDate:      normalizeDate(in.TargetDate),
		ProductionOrder: in.ProductionOrder,
		Note:            in.Note,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.rowRepo.Create(ctx, tx, []*types.ProductLocation{row}); err != nil {
			return fmt.Errorf("create association row: %w", err)
		}
		return s.reconciler.RowChanged(ctx, tx, RowEvent{After: row, UserID: in.UserID})
	})
	if err != nil {
		s.log.Error("Assign failed", "product_id", in.ProductID, "location_id", in.LocationID, "error", err)
		return nil, err
	}

	s.invalidate(ctx, nil, row)
	s.log.Info("Assigned product to location",
		"row_id", row.ID, "product_id", in.ProductID, "location_id", in.LocationID, "quantity", in.Quantity)
	return row, nil
}

func (s *store) Update(ctx context.Context, rowID uuid.UUID, in UpdateInput) (*types.ProductLocation, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("acting user required: %w", ErrInvalidInput)
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, fmt.Errorf("quantity must be non-negative: %w", ErrInvalidInput)
	}
	if in.TargetDate != nil && in.ClearTargetDate {
		return nil, fmt.Errorf("cannot set and clear target date at once: %w", ErrInvalidInput)
	}

	current, err := s.activeRow(ctx, rowID)
	if err != nil {
		return nil, err
	}

	before := *current
	after := *current
	if in.Quantity != nil {
		after.Quantity = *in.Quantity
	}
	if in.TargetDate != nil {
		after.TargetDate = normalizeDate(in.TargetDate)
	}
	if in.ClearTargetDate {
		after.TargetDate = nil
	}
	if in.ProductionOrder != nil {
		after.ProductionOrder = *in.ProductionOrder
	}
	if in.Note != nil {
		after.Note = *in.Note
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rowRepo.Update(ctx, tx, &after); err != nil {
			return fmt.Errorf("update association row: %w", err)
		}
		return s.reconciler.RowChanged(ctx, tx, RowEvent{Before: &before, After: &after, UserID: in.UserID})
	})
	if err != nil {
		s.log.Error("Update failed", "row_id", rowID, "error", err)
		return nil, err
	}

	s.invalidate(ctx, &before, &after)
	s.log.Info("Updated association row", "row_id", rowID)
	return &after, nil
}

func (s *store) SoftDelete(ctx context.Context, rowID uuid.UUID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("acting user required: %w", ErrInvalidInput)
	}
	current, err := s.activeRow(ctx, rowID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rowRepo.SoftDeleteByID(ctx, tx, rowID); err != nil {
			return fmt.Errorf("soft delete association row: %w", err)
		}
		return s.reconciler.RowChanged(ctx, tx, RowEvent{Before: current, UserID: userID})
	})
	if err != nil {
		s.log.Error("SoftDelete failed", "row_id", rowID, "error", err)
		return err
	}

	s.invalidate(ctx, current, nil)
	s.log.Info("Soft-deleted association row", "row_id", rowID, "product_id", current.ProductID)
	return nil
}

func (s *store) ListActive(ctx context.Context, productID uuid.UUID) ([]*types.ProductLocation, error) {
	return s.rowRepo.GetActiveByProductID(ctx, nil, productID)
}

func (s *store) checkRefs(ctx context.Context, productID, locationID uuid.UUID) error {
	ok, err := s.productRepo.ExistsByID(ctx, nil, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	ok, err = s.locRepo.ExistsByID(ctx, nil, locationID)
	if err != nil {
		return fmt.Errorf("check location: %w", err)
	}
	if !ok {
		return fmt.Errorf("location %s: %w", locationID, ErrNotFound)
	}
	return nil
}

func (s *store) activeRow(ctx context.Context, rowID uuid.UUID) (*types.ProductLocation, error) {
	row, err := s.rowRepo.GetByID(ctx, nil, rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("association row %s: %w", rowID, ErrNotFound)
		}
		return nil, fmt.Errorf("load association row: %w", err)
	}
	if !row.Active() {
		return nil, fmt.Errorf("association row %s already deleted: %w", rowID, ErrNotFound)
	}
	return row, nil
}

func (s *store) invalidate(ctx context.Context, before, after *types.ProductLocation) {
	if s.invalidator == nil {
		return
	}
	if key, ok := keyOf(before); ok {
		s.invalidator.Invalidate(ctx, key.LocationID, key.Month, key.Year)
	}
	if key, ok := keyOf(after); ok {
		s.invalidator.Invalidate(ctx, key.LocationID, key.Month, key.Year)
	}
}

// normalizeDate truncates to midnight UTC so month/year projection does not
// depend on the caller's timezone.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
