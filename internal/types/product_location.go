package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductLocation is one placement of a product at a production location: the
// authoritative association row. The same (product, location) pair may carry
// several rows, e.g. a split allocation delivered across months. Rows are
// soft-deleted, never removed, so history survives repairs.
type ProductLocation struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	LocationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"location_id"`
	Location   *Location  `gorm:"foreignKey:LocationID;references:ID" json:"location,omitempty"`
	Quantity   int        `gorm:"column:quantity;not null;default:0" json:"quantity"`
	// TargetDate is the expected completion date at the subcontractor. A row
	// without it is not projected into the monthly ledger.
	TargetDate      *time.Time     `gorm:"column:target_date;type:date" json:"target_date,omitempty"`
	ProductionOrder string         `gorm:"column:production_order;not null;default:''" json:"production_order"`
	Note            string         `gorm:"column:note" json:"note"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductLocation) TableName() string { return "product_location" }

// Active reports whether the row still counts toward projections.
func (pl *ProductLocation) Active() bool {
	return !pl.DeletedAt.Valid
}

// Eligible reports whether the row qualifies for a monthly ledger entry.
func (pl *ProductLocation) Eligible() bool {
	return pl.Active() && pl.Quantity > 0 && pl.TargetDate != nil
}
