package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type ProductEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, event *types.ProductEvent) error
	ListByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ProductEvent, error)
}

type productEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductEventRepo(db *gorm.DB, baseLog *logger.Logger) ProductEventRepo {
	return &productEventRepo{db: db, log: baseLog.With("repo", "ProductEventRepo")}
}

func (r *productEventRepo) Append(ctx context.Context, tx *gorm.DB, event *types.ProductEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(event).Error
}

func (r *productEventRepo) ListByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ProductEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProductEvent
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
