package service

import (
	"context"
	"log/slog"
	"time"

	"veridoc/internal/cache"
	"veridoc/internal/config"
	"veridoc/internal/models"
	"veridoc/internal/observability"
	"veridoc/internal/repository"
	"veridoc/internal/storage"
	"veridoc/internal/validation"

	"github.com/google/uuid"
)

// DocumentService manages document metadata and pre-signed storage access.
// File bytes never pass through the API; clients talk to the bucket directly.
type DocumentService struct {
	documentRepo  repository.DocumentRepository
	entityRepo    repository.EntityRepository
	validationSvc *ValidationService
	store         storage.ObjectStore
	cfg           *config.Config
	logger        *slog.Logger
}

// NewDocumentService returns a new DocumentService.
func NewDocumentService(
	documentRepo repository.DocumentRepository,
	entityRepo repository.EntityRepository,
	validationSvc *ValidationService,
	store storage.ObjectStore,
	cfg *config.Config,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		documentRepo:  documentRepo,
		entityRepo:    entityRepo,
		validationSvc: validationSvc,
		store:         store,
		cfg:           cfg,
		logger:        logger,
	}
}

// UploadURLInput is the request for a pre-signed upload grant.
type UploadURLInput struct {
	CompanyID uuid.UUID
	EntityID  uuid.UUID
	Filename  string
	MimeType  string
	SizeBytes int64
}

// UploadGrant is a one-time upload target. The client PUTs the file to
// UploadURL and then registers the document under StorageKey.
type UploadGrant struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DownloadGrant is a pre-signed read of a stored document.
type DownloadGrant struct {
	DownloadURL string    `json:"download_url"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RegisterDocumentInput is the metadata registration request. ApproverSteps
// is optional; when present, the validation flow is created together with
// the document.
type RegisterDocumentInput struct {
	CompanyID     uuid.UUID
	EntityID      uuid.UUID
	UploadedByID  uuid.UUID
	Name          string
	MimeType      string
	SizeBytes     int64
	StorageKey    string
	ContentHash   string
	Description   string
	Tags          []string
	ApproverSteps []StepInput
}

// GenerateUploadURL validates the pending upload and issues a pre-signed
// PUT against a freshly generated storage key.
func (s *DocumentService) GenerateUploadURL(ctx context.Context, in UploadURLInput) (*UploadGrant, error) {
	if err := validation.ValidateUpload(in.Filename, in.MimeType, in.SizeBytes, s.cfg.MaxUploadSizeBytes()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	entity, err := s.entityRepo.GetByID(ctx, in.EntityID)
	if err != nil {
		return nil, err
	}
	if entity == nil || entity.CompanyID != in.CompanyID {
		return nil, models.NewNotFoundError("Entity", in.EntityID)
	}

	slug := "entity"
	if entity.EntityType != nil {
		slug = entity.EntityType.Slug
	}
	key := storage.BuildObjectKey(in.CompanyID, slug, in.EntityID, in.Filename)

	url, expiresAt, err := s.store.PresignUpload(ctx, key, in.MimeType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.PresignedURLsTotal.WithLabelValues("upload").Inc()
	return &UploadGrant{StorageKey: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// RegisterDocument stores the metadata record and, when approver steps are
// given, creates the validation flow. A flow creation failure rolls the
// document back so clients never see a half-registered state.
func (s *DocumentService) RegisterDocument(ctx context.Context, in RegisterDocumentInput) (*models.Document, error) {
	if err := validation.ValidateUpload(in.Name, in.MimeType, in.SizeBytes, s.cfg.MaxUploadSizeBytes()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.StorageKey == "" {
		return nil, models.NewValidationError("storage_key is required")
	}

	entity, err := s.entityRepo.GetByID(ctx, in.EntityID)
	if err != nil {
		return nil, err
	}
	if entity == nil || entity.CompanyID != in.CompanyID {
		return nil, models.NewNotFoundError("Entity", in.EntityID)
	}

	doc := &models.Document{
		CompanyID:    in.CompanyID,
		EntityID:     in.EntityID,
		UploadedByID: in.UploadedByID,
		Name:         in.Name,
		MimeType:     in.MimeType,
		SizeBytes:    in.SizeBytes,
		StorageKey:   in.StorageKey,
		ContentHash:  in.ContentHash,
		Description:  in.Description,
		Tags:         in.Tags,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if len(in.ApproverSteps) > 0 {
		if _, err := s.validationSvc.CreateFlow(ctx, doc.ID, in.ApproverSteps); err != nil {
			if delErr := s.documentRepo.Delete(ctx, doc.ID); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to roll back document after flow creation failure",
					slog.String("document_id", doc.ID.String()), slog.Any("error", delErr))
			}
			return nil, err
		}
		pending := models.ValidationStatusPending
		doc.ValidationStatus = &pending
	}

	observability.DocumentsRegisteredTotal.Inc()
	return doc, nil
}

// GetDocument returns a company-scoped document, served through the
// document cache.
func (s *DocumentService) GetDocument(ctx context.Context, id, companyID uuid.UUID) (*models.Document, error) {
	var doc *models.Document
	err := cache.Aside(ctx, cache.DocumentKey(id), &doc, cache.DocumentTTL, func() error {
		var fetchErr error
		doc, fetchErr = s.documentRepo.GetByID(ctx, id)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, models.NewNotFoundError("Document", id)
	}
	return doc, nil
}

// ListDocuments returns the company's documents, newest first.
func (s *DocumentService) ListDocuments(ctx context.Context, companyID uuid.UUID, filter repository.DocumentFilter) ([]*models.Document, error) {
	return s.documentRepo.List(ctx, companyID, filter)
}

// GenerateDownloadURL issues a pre-signed GET for a stored document. The
// object must actually exist; a registered document whose upload never
// completed is reported as not found.
func (s *DocumentService) GenerateDownloadURL(ctx context.Context, id, companyID uuid.UUID) (*DownloadGrant, error) {
	doc, err := s.GetDocument(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Exists(ctx, doc.StorageKey)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !exists {
		return nil, models.NewNotFoundError("Document file", id)
	}

	url, expiresAt, err := s.store.PresignDownload(ctx, doc.StorageKey)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.PresignedURLsTotal.WithLabelValues("download").Inc()
	return &DownloadGrant{
		DownloadURL: url,
		Filename:    doc.Name,
		MimeType:    doc.MimeType,
		SizeBytes:   doc.SizeBytes,
		ExpiresAt:   expiresAt,
	}, nil
}

// DeleteDocument removes the metadata record, its validation flow, and,
// best effort, the stored object.
func (s *DocumentService) DeleteDocument(ctx context.Context, id, companyID uuid.UUID) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil || doc.CompanyID != companyID {
		return models.NewNotFoundError("Document", id)
	}

	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return err
	}

	// The metadata row is the system of record; a dangling object is
	// harmless and cleaned up out of band.
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored object",
			slog.String("storage_key", doc.StorageKey), slog.Any("error", err))
	}
	return nil
}
