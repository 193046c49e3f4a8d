package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

// DuplicateGroup reports ledger entries sharing one grouping key. With the
// unique index in place this can only describe rows predating it.
type DuplicateGroup struct {
	Key     GroupKey
	Entries []*types.MonthlyAllocation
}

type MonthlyAllocationRepo interface {
	// Upsert writes the entry for its grouping key, replacing quantity and
	// metadata if an entry for the key already exists. Requires the
	// grouping-key unique index as conflict target.
	Upsert(ctx context.Context, tx *gorm.DB, entry *types.MonthlyAllocation) error
	// Create inserts without a conflict clause. Rebuild-style writers that
	// cleared the key's entries in the same transaction use this; it also
	// works on databases still missing the grouping-key unique index.
	Create(ctx context.Context, tx *gorm.DB, entry *types.MonthlyAllocation) error
	GetByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.MonthlyAllocation, error)
	GetByGroupKey(ctx context.Context, tx *gorm.DB, key GroupKey) (*types.MonthlyAllocation, error)
	DeleteByGroupKey(ctx context.Context, tx *gorm.DB, key GroupKey) error
	DeleteByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error)
	SumQuantityByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error)
	SumQuantityByLocationMonth(ctx context.Context, tx *gorm.DB, locationID uuid.UUID, month, year int) (int64, error)
	DuplicateGroups(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]DuplicateGroup, error)
}

type monthlyAllocationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMonthlyAllocationRepo(db *gorm.DB, baseLog *logger.Logger) MonthlyAllocationRepo {
	return &monthlyAllocationRepo{db: db, log: baseLog.With("repo", "MonthlyAllocationRepo")}
}

func (r *monthlyAllocationRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *types.MonthlyAllocation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "product_id"},
				{Name: "location_id"},
				{Name: "month"},
				{Name: "year"},
				{Name: "production_order"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity", "kind", "user_id", "product_location_id", "note", "updated_at",
			}),
		}).
		Create(entry).Error
}

func (r *monthlyAllocationRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.MonthlyAllocation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *monthlyAllocationRepo) GetByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.MonthlyAllocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MonthlyAllocation
	if err := transaction.WithContext(ctx).
		Preload("Location").
		Where("product_id = ?", productID).
		Order("year, month").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *monthlyAllocationRepo) GetByGroupKey(ctx context.Context, tx *gorm.DB, key GroupKey) (*types.MonthlyAllocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.MonthlyAllocation
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", key.ProductID).
		Where("location_id = ?", key.LocationID).
		Where("month = ?", key.Month).
		Where("year = ?", key.Year).
		Where("production_order = ?", key.ProductionOrder).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *monthlyAllocationRepo) DeleteByGroupKey(ctx context.Context, tx *gorm.DB, key GroupKey) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("product_id = ?", key.ProductID).
		Where("location_id = ?", key.LocationID).
		Where("month = ?", key.Month).
		Where("year = ?", key.Year).
		Where("production_order = ?", key.ProductionOrder).
		Delete(&types.MonthlyAllocation{}).Error
}

func (r *monthlyAllocationRepo) DeleteByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&types.MonthlyAllocation{})
	return res.RowsAffected, res.Error
}

func (r *monthlyAllocationRepo) SumQuantityByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.MonthlyAllocation{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *monthlyAllocationRepo) SumQuantityByLocationMonth(ctx context.Context, tx *gorm.DB, locationID uuid.UUID, month, year int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.MonthlyAllocation{}).
		Where("location_id = ?", locationID).
		Where("month = ?", month).
		Where("year = ?", year).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *monthlyAllocationRepo) DuplicateGroups(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]DuplicateGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var entries []*types.MonthlyAllocation
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("year, month, created_at").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	grouped := map[GroupKey][]*types.MonthlyAllocation{}
	for _, e := range entries {
		key := GroupKey{
			ProductID:       e.ProductID,
			LocationID:      e.LocationID,
			Month:           e.Month,
			Year:            e.Year,
			ProductionOrder: e.ProductionOrder,
		}
		grouped[key] = append(grouped[key], e)
	}
	var dups []DuplicateGroup
	for key, group := range grouped {
		if len(group) > 1 {
			dups = append(dups, DuplicateGroup{Key: key, Entries: group})
		}
	}
	return dups, nil
}
