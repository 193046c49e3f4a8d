package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// ProductLocationRepo is the persistence side of the association store. All
// mutations here are expected to run inside the store's transaction; the repo
// itself enforces nothing about reconciliation.
type ProductLocationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ProductLocation) ([]*types.ProductLocation, error)
	// GetByID returns the row even when soft-deleted; callers check Active().
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProductLocation, error)
	GetActiveByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ProductLocation, error)
	GetAllByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ProductLocation, error)
	// GetActiveByGroupKey returns every active row projecting onto one ledger
	// grouping key. Month/year are matched against target_date.
	GetActiveByGroupKey(ctx context.Context, tx *gorm.DB, key GroupKey) ([]*types.ProductLocation, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.ProductLocation) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SumActiveQuantityByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error)
}

// GroupKey identifies one monthly ledger bucket.
type GroupKey struct {
	ProductID       uuid.UUID
	LocationID      uuid.UUID
	Month           int
	Year            int
	ProductionOrder string
}

type productLocationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductLocationRepo(db *gorm.DB, baseLog *logger.Logger) ProductLocationRepo {
	return &productLocationRepo{db: db, log: baseLog.With("repo", "ProductLocationRepo")}
}

func (r *productLocationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ProductLocation) ([]*types.ProductLocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.ProductLocation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productLocationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProductLocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.ProductLocation
	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *productLocationRepo) GetActiveByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ProductLocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProductLocation
	if err := transaction.WithContext(ctx).
		Preload("Location").
		Where("product_id = ?", productID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productLocationRepo) GetAllByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ProductLocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProductLocation
	if err := transaction.WithContext(ctx).
		Unscoped().
		Preload("Location").
		Where("product_id = ?", productID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productLocationRepo) GetActiveByGroupKey(ctx context.Context, tx *gorm.DB, key GroupKey) ([]*types.ProductLocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	start := time.Date(key.Year, time.Month(key.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	var results []*types.ProductLocation
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", key.ProductID).
		Where("location_id = ?", key.LocationID).
		Where("production_order = ?", key.ProductionOrder).
		Where("quantity > 0").
		Where("target_date >= ? AND target_date < ?", start, end).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productLocationRepo) Update(ctx context.Context, tx *gorm.DB, row *types.ProductLocation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ProductLocation{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"quantity":         row.Quantity,
			"target_date":      row.TargetDate,
			"production_order": row.ProductionOrder,
			"note":             row.Note,
		}).Error
}

func (r *productLocationRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ProductLocation{}).Error
}

func (r *productLocationRepo) SumActiveQuantityByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProductLocation{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
