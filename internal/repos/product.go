package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// ProductFilter narrows List; zero values mean "no filter".
type ProductFilter struct {
	Reference   string
	Description string
	BrandID     uuid.UUID
	DesignerID  uuid.UUID
	GroupID     uuid.UUID
	StatusID    uuid.UUID
	LocationID  uuid.UUID
	WithDeleted bool
}

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error)
	GetByReference(ctx context.Context, tx *gorm.DB, reference string) (*types.Product, error)
	List(ctx context.Context, tx *gorm.DB, filter ProductFilter) ([]*types.Product, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	Update(ctx context.Context, tx *gorm.DB, product *types.Product) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ReplaceFabrics(ctx context.Context, tx *gorm.DB, productID uuid.UUID, fabrics []*types.ProductFabric) error
	ReplaceColors(ctx context.Context, tx *gorm.DB, productID uuid.UUID, colors []*types.ProductColor) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(products) == 0 {
		return []*types.Product{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Product
	if err := transaction.WithContext(ctx).
		Preload("Brand").
		Preload("Designer").
		Preload("Group").
		Preload("Status").
		Preload("Fabrics.Fabric").
		Preload("Colors").
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *productRepo) GetByReference(ctx context.Context, tx *gorm.DB, reference string) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Product
	if err := transaction.WithContext(ctx).
		Where("reference = ?", reference).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *productRepo) List(ctx context.Context, tx *gorm.DB, filter ProductFilter) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Product{}).
		Preload("Brand").
		Preload("Status")
	if filter.WithDeleted {
		q = q.Unscoped()
	}
	if filter.Reference != "" {
		q = q.Where("reference ILIKE ?", "%"+filter.Reference+"%")
	}
	if filter.Description != "" {
		q = q.Where("description ILIKE ?", "%"+filter.Description+"%")
	}
	if filter.BrandID != uuid.Nil {
		q = q.Where("brand_id = ?", filter.BrandID)
	}
	if filter.DesignerID != uuid.Nil {
		q = q.Where("designer_id = ?", filter.DesignerID)
	}
	if filter.GroupID != uuid.Nil {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	if filter.StatusID != uuid.Nil {
		q = q.Where("status_id = ?", filter.StatusID)
	}
	if filter.LocationID != uuid.Nil {
		q = q.Where("id IN (?)", transaction.Model(&types.ProductLocation{}).
			Select("product_id").
			Where("location_id = ?", filter.LocationID))
	}
	var results []*types.Product
	if err := q.Order("reference").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Order("reference").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *productRepo) Update(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"reference":              product.Reference,
			"description":            product.Description,
			"registered_at":          product.RegisteredAt,
			"expected_production_at": product.ExpectedProductionAt,
			"brand_id":               product.BrandID,
			"designer_id":            product.DesignerID,
			"group_id":               product.GroupID,
			"status_id":              product.StatusID,
			"notes":                  product.Notes,
		}).Error
}

func (r *productRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Product{}).Error
}

func (r *productRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepo) ReplaceFabrics(ctx context.Context, tx *gorm.DB, productID uuid.UUID, fabrics []*types.ProductFabric) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&types.ProductFabric{}).Error; err != nil {
		return err
	}
	if len(fabrics) == 0 {
		return nil
	}
	for _, f := range fabrics {
		f.ProductID = productID
	}
	return transaction.WithContext(ctx).Create(&fabrics).Error
}

func (r *productRepo) ReplaceColors(ctx context.Context, tx *gorm.DB, productID uuid.UUID, colors []*types.ProductColor) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&types.ProductColor{}).Error; err != nil {
		return err
	}
	if len(colors) == 0 {
		return nil
	}
	for _, c := range colors {
		c.ProductID = productID
	}
	return transaction.WithContext(ctx).Create(&colors).Error
}
