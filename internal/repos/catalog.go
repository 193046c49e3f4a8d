package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type BrandRepo interface {
	Create(ctx context.Context, tx *gorm.DB, brand *types.Brand) (*types.Brand, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Brand, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Brand, error)
	Update(ctx context.Context, tx *gorm.DB, brand *types.Brand) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type brandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandRepo(db *gorm.DB, baseLog *logger.Logger) BrandRepo {
	return &brandRepo{db: db, log: baseLog.With("repo", "BrandRepo")}
}

func (r *brandRepo) Create(ctx context.Context, tx *gorm.DB, brand *types.Brand) (*types.Brand, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(brand).Error; err != nil {
		return nil, err
	}
	return brand, nil
}

func (r *brandRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Brand, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Brand
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *brandRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Brand, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Brand{}).Order("name")
	if activeOnly {
		q = q.Where("active = true")
	}
	var results []*types.Brand
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *brandRepo) Update(ctx context.Context, tx *gorm.DB, brand *types.Brand) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Brand{}).
		Where("id = ?", brand.ID).
		Updates(map[string]interface{}{
			"name":   brand.Name,
			"active": brand.Active,
			"notes":  brand.Notes,
		}).Error
}

func (r *brandRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Brand{}).Error
}

type FabricRepo interface {
	Create(ctx context.Context, tx *gorm.DB, fabric *types.Fabric) (*types.Fabric, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Fabric, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Fabric, error)
	Update(ctx context.Context, tx *gorm.DB, fabric *types.Fabric) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type fabricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFabricRepo(db *gorm.DB, baseLog *logger.Logger) FabricRepo {
	return &fabricRepo{db: db, log: baseLog.With("repo", "FabricRepo")}
}

func (r *fabricRepo) Create(ctx context.Context, tx *gorm.DB, fabric *types.Fabric) (*types.Fabric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(fabric).Error; err != nil {
		return nil, err
	}
	return fabric, nil
}

func (r *fabricRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Fabric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Fabric
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *fabricRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Fabric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Fabric{}).Order("name")
	if activeOnly {
		q = q.Where("active = true")
	}
	var results []*types.Fabric
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fabricRepo) Update(ctx context.Context, tx *gorm.DB, fabric *types.Fabric) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Fabric{}).
		Where("id = ?", fabric.ID).
		Updates(map[string]interface{}{
			"name":        fabric.Name,
			"composition": fabric.Composition,
			"active":      fabric.Active,
			"notes":       fabric.Notes,
		}).Error
}

func (r *fabricRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Fabric{}).Error
}

type DesignerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, designer *types.Designer) (*types.Designer, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Designer, error)
}

type designerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDesignerRepo(db *gorm.DB, baseLog *logger.Logger) DesignerRepo {
	return &designerRepo{db: db, log: baseLog.With("repo", "DesignerRepo")}
}

func (r *designerRepo) Create(ctx context.Context, tx *gorm.DB, designer *types.Designer) (*types.Designer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(designer).Error; err != nil {
		return nil, err
	}
	return designer, nil
}

func (r *designerRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Designer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Designer{}).Order("name")
	if activeOnly {
		q = q.Where("active = true")
	}
	var results []*types.Designer
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type ProductGroupRepo interface {
	Create(ctx context.Context, tx *gorm.DB, group *types.ProductGroup) (*types.ProductGroup, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.ProductGroup, error)
}

type productGroupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductGroupRepo(db *gorm.DB, baseLog *logger.Logger) ProductGroupRepo {
	return &productGroupRepo{db: db, log: baseLog.With("repo", "ProductGroupRepo")}
}

func (r *productGroupRepo) Create(ctx context.Context, tx *gorm.DB, group *types.ProductGroup) (*types.ProductGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (r *productGroupRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.ProductGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.ProductGroup{}).Order("description")
	if activeOnly {
		q = q.Where("active = true")
	}
	var results []*types.ProductGroup
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type StatusRepo interface {
	Create(ctx context.Context, tx *gorm.DB, status *types.Status) (*types.Status, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Status, error)
}

type statusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusRepo(db *gorm.DB, baseLog *logger.Logger) StatusRepo {
	return &statusRepo{db: db, log: baseLog.With("repo", "StatusRepo")}
}

func (r *statusRepo) Create(ctx context.Context, tx *gorm.DB, status *types.Status) (*types.Status, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(status).Error; err != nil {
		return nil, err
	}
	return status, nil
}

func (r *statusRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Status, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Status{}).Order("description")
	if activeOnly {
		q = q.Where("active = true")
	}
	var results []*types.Status
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
