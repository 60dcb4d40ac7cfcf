package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityType categorizes business objects (vehicle, employee, contract, ...).
// Types are scoped per company so tenants can define their own taxonomy.
type EntityType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index;index:idx_entity_types_company_slug,unique" json:"company_id"`
	Company     *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:60;not null;index:idx_entity_types_company_slug,unique" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (EntityType) TableName() string {
	return "entity_types"
}

// BeforeCreate assigns a UUID if one was not provided.
func (t *EntityType) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Entity is a business object that documents are attached to.
type Entity struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Company      *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	EntityTypeID uuid.UUID      `gorm:"type:uuid;not null;index" json:"entity_type_id"`
	EntityType   *EntityType    `gorm:"foreignKey:EntityTypeID" json:"entity_type,omitempty"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Metadata     map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Entity) TableName() string {
	return "entities"
}

// BeforeCreate assigns a UUID if one was not provided.
func (e *Entity) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
