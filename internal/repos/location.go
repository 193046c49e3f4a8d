package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type LocationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, location *types.Location) (*types.Location, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Location, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Location, error)
	Update(ctx context.Context, tx *gorm.DB, location *types.Location) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	return &locationRepo{db: db, log: baseLog.With("repo", "LocationRepo")}
}

func (r *locationRepo) Create(ctx context.Context, tx *gorm.DB, location *types.Location) (*types.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *locationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Location
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *locationRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Location, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Location{}).Order("name")
	if activeOnly {
		q = q.Where("active = true")
	}
	var results []*types.Location
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *locationRepo) Update(ctx context.Context, tx *gorm.DB, location *types.Location) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Location{}).
		Where("id = ?", location.ID).
		Updates(map[string]interface{}{
			"name":           location.Name,
			"short_name":     location.ShortName,
			"active":         location.Active,
			"lead_time_days": location.LeadTimeDays,
			"capacity":       location.Capacity,
			"notes":          location.Notes,
		}).Error
}

func (r *locationRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Location{}).Error
}

func (r *locationRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Location{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
