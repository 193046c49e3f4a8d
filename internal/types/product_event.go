package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ProductEventCreated       = "product.created"
	ProductEventUpdated       = "product.updated"
	ProductEventDeleted       = "product.deleted"
	ProductEventCopied        = "product.copied"
	ProductEventLedgerRebuilt = "product.ledger_rebuilt"
)

// ProductEvent is an append-only audit record for catalog and ledger
// maintenance actions.
type ProductEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	Action    string         `gorm:"column:action;not null" json:"action"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ProductEvent) TableName() string { return "product_event" }
