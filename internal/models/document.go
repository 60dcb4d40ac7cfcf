package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationStatus is the approval state of a document. A document registered
// without a validation flow has no status at all (NULL), which is distinct
// from pending.
type ValidationStatus string

const (
	// ValidationStatusPending indicates the document is awaiting approvals.
	ValidationStatusPending ValidationStatus = "pending"
	// ValidationStatusApproved indicates the flow completed successfully.
	ValidationStatusApproved ValidationStatus = "approved"
	// ValidationStatusRejected indicates an approver vetoed the document.
	ValidationStatusRejected ValidationStatus = "rejected"
)

// Document is a metadata record for a stored file, owned by a company and
// attached to one of its entities. The file bytes live in object storage
// under StorageKey. ValidationStatus is owned by the validation engine once
// a flow exists and must not be mutated directly elsewhere.
type Document struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"company_id"`
	Company          *Company          `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	EntityID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"entity_id"`
	Entity           *Entity           `gorm:"foreignKey:EntityID" json:"entity,omitempty"`
	UploadedByID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	UploadedBy       *User             `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	Name             string            `gorm:"size:255;not null" json:"name"`
	MimeType         string            `gorm:"size:120;not null" json:"mime_type"`
	SizeBytes        int64             `gorm:"not null" json:"size_bytes"`
	StorageKey       string            `gorm:"size:512;not null;uniqueIndex" json:"storage_key"`
	ContentHash      string            `gorm:"size:64;index" json:"content_hash"`
	Description      string            `gorm:"type:text" json:"description"`
	Tags             []string          `gorm:"serializer:json" json:"tags,omitempty"`
	ValidationStatus *ValidationStatus `gorm:"type:varchar(20);index" json:"validation_status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate assigns a UUID if one was not provided.
func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
