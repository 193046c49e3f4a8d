package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AllocationKindOriginal = "original"
	AllocationKindRebuild  = "rebuild"
)

// MonthlyAllocation is one derived ledger entry: the quantity of a product
// expected at a location in a given month. Written only by the reconciler and
// the rebuilder; the unique index on the grouping key guarantees at most one
// entry per (product, location, month, year, production order).
type MonthlyAllocation struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_monthly_allocation_group;index" json:"product_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_monthly_allocation_group" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID;references:ID" json:"location,omitempty"`
	Month      int       `gorm:"column:month;not null;uniqueIndex:idx_monthly_allocation_group;check:chk_monthly_allocation_month,month >= 1 AND month <= 12" json:"month"`
	Year       int       `gorm:"column:year;not null;uniqueIndex:idx_monthly_allocation_group" json:"year"`
	// ProductionOrder uses '' as the no-order sentinel so the grouping index
	// treats absent orders as a single bucket.
	ProductionOrder string    `gorm:"column:production_order;not null;default:'';uniqueIndex:idx_monthly_allocation_group" json:"production_order"`
	Quantity        int       `gorm:"column:quantity;not null" json:"quantity"`
	Kind            string    `gorm:"column:kind;not null;default:'original'" json:"kind"`
	UserID          uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	// ProductLocationID points at the source association row. Nil when the
	// entry merges more than one row.
	ProductLocationID *uuid.UUID `gorm:"type:uuid;index" json:"product_location_id,omitempty"`
	Note              string     `gorm:"column:note" json:"note"`
	CreatedAt         time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (MonthlyAllocation) TableName() string { return "monthly_allocation" }
