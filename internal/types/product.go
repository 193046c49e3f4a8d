package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Reference            string         `gorm:"column:reference;uniqueIndex;not null" json:"reference"`
	Description          string         `gorm:"column:description;not null" json:"description"`
	RegisteredAt         *time.Time     `gorm:"column:registered_at" json:"registered_at,omitempty"`
	ExpectedProductionAt *time.Time     `gorm:"column:expected_production_at" json:"expected_production_at,omitempty"`
	BrandID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand                *Brand         `gorm:"foreignKey:BrandID;references:ID" json:"brand,omitempty"`
	DesignerID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"designer_id"`
	Designer             *Designer      `gorm:"foreignKey:DesignerID;references:ID" json:"designer,omitempty"`
	GroupID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"group_id"`
	Group                *ProductGroup  `gorm:"foreignKey:GroupID;references:ID" json:"group,omitempty"`
	StatusID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"status_id"`
	Status               *Status        `gorm:"foreignKey:StatusID;references:ID" json:"status,omitempty"`
	Notes                string         `gorm:"column:notes" json:"notes"`
	Fabrics              []*ProductFabric   `gorm:"foreignKey:ProductID" json:"fabrics,omitempty"`
	Colors               []*ProductColor    `gorm:"foreignKey:ProductID" json:"colors,omitempty"`
	Locations            []*ProductLocation `gorm:"foreignKey:ProductID" json:"locations,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }

// ProductFabric links a product to one of its fabrics with the consumption in
// meters per produced unit.
type ProductFabric struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_fabric" json:"product_id"`
	FabricID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_fabric" json:"fabric_id"`
	Fabric      *Fabric         `gorm:"foreignKey:FabricID;references:ID" json:"fabric,omitempty"`
	Consumption decimal.Decimal `gorm:"column:consumption;type:decimal(10,3);not null;default:0" json:"consumption"`
	CreatedAt   time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProductFabric) TableName() string { return "product_fabric" }

type ProductColor struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Color     string    `gorm:"column:color;not null" json:"color"`
	ColorCode string    `gorm:"column:color_code" json:"color_code"`
	Quantity  int       `gorm:"column:quantity;not null;default:0" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProductColor) TableName() string { return "product_color" }
