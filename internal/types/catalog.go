package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Brand struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Active    bool           `gorm:"column:active;not null;default:true" json:"active"`
	Notes     string         `gorm:"column:notes" json:"notes"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Brand) TableName() string { return "brand" }

type Fabric struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Composition string         `gorm:"column:composition" json:"composition"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	Notes       string         `gorm:"column:notes" json:"notes"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Fabric) TableName() string { return "fabric" }

type Designer struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Active    bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Designer) TableName() string { return "designer" }

type ProductGroup struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Description string         `gorm:"column:description;uniqueIndex;not null" json:"description"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductGroup) TableName() string { return "product_group" }

type Status struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Description string         `gorm:"column:description;uniqueIndex;not null" json:"description"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Status) TableName() string { return "status" }
