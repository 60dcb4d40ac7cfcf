package repository

import (
	"context"
	"errors"

	"veridoc/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationRepository defines read access to validation flow state. All
// mutations happen inside the validation service's transactions; this
// interface serves the query/reporting operations.
type ValidationRepository interface {
	GetFlowByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.ValidationFlow, error)
	ListPendingDocuments(ctx context.Context, userID, companyID uuid.UUID) ([]*models.Document, error)
	CountActions(ctx context.Context, actorID uuid.UUID, kind models.ActionKind) (int64, error)
	ListActionsByDocument(ctx context.Context, documentID uuid.UUID) ([]*models.ValidationAction, error)
}

// validationRepository implements ValidationRepository
type validationRepository struct {
	db *gorm.DB
}

// NewValidationRepository creates a new validation repository
func NewValidationRepository(db *gorm.DB) ValidationRepository {
	return &validationRepository{db: db}
}

func (r *validationRepository) GetFlowByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.ValidationFlow, error) {
	var flow models.ValidationFlow
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Steps.Approver").
		Where("document_id = ?", documentID).
		First(&flow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// ListPendingDocuments returns the documents the user still has to act on:
// same company, document pending, flow active, and the user's own step
// pending. Distinct by document.
func (r *validationRepository) ListPendingDocuments(ctx context.Context, userID, companyID uuid.UUID) ([]*models.Document, error) {
	var docs []*models.Document
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Distinct("documents.*").
		Joins("JOIN validation_flows ON validation_flows.document_id = documents.id").
		Joins("JOIN validation_steps ON validation_steps.validation_flow_id = validation_flows.id").
		Where("documents.company_id = ?", companyID).
		Where("documents.validation_status = ?", models.ValidationStatusPending).
		Where("validation_flows.active = ?", true).
		Where("validation_steps.approver_id = ?", userID).
		Where("validation_steps.status = ?", models.StepStatusPending).
		Order("documents.created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *validationRepository) CountActions(ctx context.Context, actorID uuid.UUID, kind models.ActionKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ValidationAction{}).
		Where("actor_id = ? AND action = ?", actorID, kind).
		Count(&count).Error
	return count, err
}

func (r *validationRepository) ListActionsByDocument(ctx context.Context, documentID uuid.UUID) ([]*models.ValidationAction, error) {
	var actions []*models.ValidationAction
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}
