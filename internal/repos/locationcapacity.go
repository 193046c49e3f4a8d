package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type LocationCapacityRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, cap *types.LocationCapacity) error
	GetByLocationID(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) ([]*types.LocationCapacity, error)
	GetByLocationMonth(ctx context.Context, tx *gorm.DB, locationID uuid.UUID, month, year int) (*types.LocationCapacity, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type locationCapacityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationCapacityRepo(db *gorm.DB, baseLog *logger.Logger) LocationCapacityRepo {
	return &locationCapacityRepo{db: db, log: baseLog.With("repo", "LocationCapacityRepo")}
}

func (r *locationCapacityRepo) Upsert(ctx context.Context, tx *gorm.DB, cap *types.LocationCapacity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "location_id"},
				{Name: "month"},
				{Name: "year"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"capacity", "notes", "updated_at"}),
		}).
		Create(cap).Error
}

func (r *locationCapacityRepo) GetByLocationID(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) ([]*types.LocationCapacity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LocationCapacity
	if err := transaction.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("year, month").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *locationCapacityRepo) GetByLocationMonth(ctx context.Context, tx *gorm.DB, locationID uuid.UUID, month, year int) (*types.LocationCapacity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.LocationCapacity
	if err := transaction.WithContext(ctx).
		Where("location_id = ?", locationID).
		Where("month = ?", month).
		Where("year = ?", year).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *locationCapacityRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.LocationCapacity{}).Error
}
