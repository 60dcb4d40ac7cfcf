package server

import (
	"veridoc/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ApproveDocument handles POST /api/documents/:id/approve
func (s *Server) ApproveDocument(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Company scoping: a document of another tenant is simply not found.
	if _, err := s.documentService.GetDocument(c.Context(), id, user.CompanyID); err != nil {
		return respondServiceError(c, err)
	}

	action, err := s.validationService.Approve(c.Context(), id, user.ID, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(action)
}

// RejectDocument handles POST /api/documents/:id/reject
func (s *Server) RejectDocument(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.documentService.GetDocument(c.Context(), id, user.CompanyID); err != nil {
		return respondServiceError(c, err)
	}

	action, err := s.validationService.Reject(c.Context(), id, user.ID, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(action)
}

// GetValidationStatus handles GET /api/documents/:id/validation-status
func (s *Server) GetValidationStatus(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.documentService.GetDocument(c.Context(), id, user.CompanyID); err != nil {
		return respondServiceError(c, err)
	}

	status, err := s.validationService.GetStatus(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(status)
}

// GetValidationActions handles GET /api/documents/:id/actions
func (s *Server) GetValidationActions(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.documentService.GetDocument(c.Context(), id, user.CompanyID); err != nil {
		return respondServiceError(c, err)
	}

	actions, err := s.validationService.ListActions(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(actions)
}

// GetPendingApprovals handles GET /api/documents/pending-approvals
func (s *Server) GetPendingApprovals(c *fiber.Ctx) error {
	docs, err := s.validationService.ListPendingApprovals(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(docs)
}

// GetApprovalStats handles GET /api/documents/approval-stats
func (s *Server) GetApprovalStats(c *fiber.Ctx) error {
	stats, err := s.validationService.GetApprovalStats(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}
