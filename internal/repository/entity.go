package repository

import (
	"context"
	"errors"

	"veridoc/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityRepository defines the interface for entity directory lookups.
type EntityRepository interface {
	Create(ctx context.Context, entity *models.Entity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entity, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Entity, error)
}

// entityRepository implements EntityRepository
type entityRepository struct {
	db *gorm.DB
}

// NewEntityRepository creates a new entity repository
func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &entityRepository{db: db}
}

func (r *entityRepository) Create(ctx context.Context, entity *models.Entity) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *entityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	var entity models.Entity
	err := r.db.WithContext(ctx).
		Preload("EntityType").
		First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *entityRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	var entities []*models.Entity
	err := r.db.WithContext(ctx).
		Preload("EntityType").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).Error
	return entities, err
}
