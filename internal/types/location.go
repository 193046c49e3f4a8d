package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a production site (usually an external subcontractor) where
// product batches are placed for manufacturing.
type Location struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	ShortName    string         `gorm:"column:short_name" json:"short_name"`
	Active       bool           `gorm:"column:active;not null;default:true" json:"active"`
	LeadTimeDays int            `gorm:"column:lead_time_days;not null;default:0" json:"lead_time_days"`
	Capacity     int            `gorm:"column:capacity;not null;default:0" json:"capacity"`
	Notes        string         `gorm:"column:notes" json:"notes"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Location) TableName() string { return "location" }

// LocationCapacity is the planned monthly ceiling for one location. Occupancy
// reporting compares it against the monthly allocation ledger; the reconciler
// never writes it.
type LocationCapacity struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_capacity_period" json:"location_id"`
	Location   *Location `gorm:"constraint:OnDelete:CASCADE;foreignKey:LocationID;references:ID" json:"location,omitempty"`
	Month      int       `gorm:"column:month;not null;uniqueIndex:idx_location_capacity_period;check:chk_location_capacity_month,month >= 1 AND month <= 12" json:"month"`
	Year       int       `gorm:"column:year;not null;uniqueIndex:idx_location_capacity_period" json:"year"`
	Capacity   int       `gorm:"column:capacity;not null" json:"capacity"`
	Notes      string    `gorm:"column:notes" json:"notes"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LocationCapacity) TableName() string { return "location_capacity" }
