package server

import (
	"veridoc/internal/models"
	"veridoc/internal/repository"
	"veridoc/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GenerateUploadURL handles POST /api/documents/upload-url
// The client receives a pre-signed PUT target plus the storage key it must
// present when registering the document afterwards.
func (s *Server) GenerateUploadURL(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		EntityID  uuid.UUID `json:"entity_id"`
		Filename  string    `json:"filename"`
		MimeType  string    `json:"mime_type"`
		SizeBytes int64     `json:"size_bytes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	grant, err := s.documentService.GenerateUploadURL(c.Context(), service.UploadURLInput{
		CompanyID: user.CompanyID,
		EntityID:  req.EntityID,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(grant)
}

// RegisterDocument handles POST /api/documents
func (s *Server) RegisterDocument(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		EntityID    uuid.UUID           `json:"entity_id"`
		Name        string              `json:"name"`
		MimeType    string              `json:"mime_type"`
		SizeBytes   int64               `json:"size_bytes"`
		StorageKey  string              `json:"storage_key"`
		ContentHash string              `json:"content_hash"`
		Description string              `json:"description"`
		Tags        []string            `json:"tags"`
		Validation  []service.StepInput `json:"validation_steps"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	doc, err := s.documentService.RegisterDocument(c.Context(), service.RegisterDocumentInput{
		CompanyID:     user.CompanyID,
		EntityID:      req.EntityID,
		UploadedByID:  user.ID,
		Name:          req.Name,
		MimeType:      req.MimeType,
		SizeBytes:     req.SizeBytes,
		StorageKey:    req.StorageKey,
		ContentHash:   req.ContentHash,
		Description:   req.Description,
		Tags:          req.Tags,
		ApproverSteps: req.Validation,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(doc)
}

// GetDocuments handles GET /api/documents
func (s *Server) GetDocuments(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)
	filter := repository.DocumentFilter{Limit: page.Limit, Offset: page.Offset}

	if raw := c.Query("entity_id"); raw != "" {
		entityID, err := uuid.Parse(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid entity_id"))
		}
		filter.EntityID = &entityID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ValidationStatus(raw)
		switch status {
		case models.ValidationStatusPending, models.ValidationStatusApproved, models.ValidationStatusRejected:
			filter.Status = &status
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid status filter"))
		}
	}

	docs, err := s.documentService.ListDocuments(c.Context(), user.CompanyID, filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(docs)
}

// GetDocument handles GET /api/documents/:id
func (s *Server) GetDocument(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	doc, err := s.documentService.GetDocument(c.Context(), id, user.CompanyID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(doc)
}

// DeleteDocument handles DELETE /api/documents/:id
func (s *Server) DeleteDocument(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	if err := s.documentService.DeleteDocument(c.Context(), id, user.CompanyID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadDocument handles GET /api/documents/:id/download
func (s *Server) DownloadDocument(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	grant, err := s.documentService.GenerateDownloadURL(c.Context(), id, user.CompanyID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(grant)
}
