package repository

import (
	"context"
	"errors"

	"veridoc/internal/cache"
	"veridoc/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	EntityID *uuid.UUID
	Status   *models.ValidationStatus
	Limit    int
	Offset   int
}

// DocumentRepository defines the interface for document metadata operations.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, companyID uuid.UUID, filter DocumentFilter) ([]*models.Document, error)
	SetValidationStatus(ctx context.Context, id uuid.UUID, status models.ValidationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// documentRepository implements DocumentRepository
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Preload("Entity").
		Preload("UploadedBy").
		First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, companyID uuid.UUID, filter DocumentFilter) ([]*models.Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := r.db.WithContext(ctx).
		Preload("Entity").
		Where("company_id = ?", companyID)
	if filter.EntityID != nil {
		q = q.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Status != nil {
		q = q.Where("validation_status = ?", *filter.Status)
	}

	var docs []*models.Document
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) SetValidationStatus(ctx context.Context, id uuid.UUID, status models.ValidationStatus) error {
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Update("validation_status", status).Error
	if err == nil {
		cache.InvalidateDocument(ctx, id)
	}
	return err
}

// Delete removes the document and everything hanging off it: audit actions,
// validation steps, the flow, then the document row. Explicit statements
// rather than FK cascades so behavior is identical across dialects.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.ValidationAction{}).Error; err != nil {
			return err
		}

		var flow models.ValidationFlow
		err := tx.Where("document_id = ?", id).First(&flow).Error
		switch {
		case err == nil:
			if err := tx.Where("validation_flow_id = ?", flow.ID).Delete(&models.ValidationStep{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&flow).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Delete(&models.Document{}, "id = ?", id).Error
	})
	if err == nil {
		cache.InvalidateDocument(ctx, id)
	}
	return err
}
