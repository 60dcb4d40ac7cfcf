package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// Validation workflow error constructors. Each failure mode carries its own
// code so the API layer can map it to a distinct client-facing response.

// NewEmptyStepsError is returned when a flow is created with no steps.
func NewEmptyStepsError() *AppError {
	return &AppError{
		Code:    "EMPTY_STEPS",
		Message: "Validation flow requires at least one step",
	}
}

// NewDuplicateOrderError is returned when two steps share an order value.
func NewDuplicateOrderError(order int) *AppError {
	return &AppError{
		Code:    "DUPLICATE_ORDER",
		Message: fmt.Sprintf("Duplicate step order %d in validation flow", order),
	}
}

// NewCrossTenantApproverError is returned when an approver belongs to a
// different company than the document.
func NewCrossTenantApproverError(approverID interface{}) *AppError {
	return &AppError{
		Code:    "CROSS_TENANT_APPROVER",
		Message: fmt.Sprintf("Approver %v does not belong to the document's company", approverID),
	}
}

// NewFlowExistsError is returned when a document already has a validation flow.
func NewFlowExistsError(documentID interface{}) *AppError {
	return &AppError{
		Code:    "FLOW_EXISTS",
		Message: fmt.Sprintf("Document %v already has a validation flow", documentID),
	}
}

// NewNotAuthorizedError is returned when the actor lacks approval capability.
func NewNotAuthorizedError() *AppError {
	return &AppError{
		Code:    "NOT_AUTHORIZED",
		Message: "User is not authorized to act on validation flows",
	}
}

// NewNoActiveFlowError is returned when a document has no validation flow.
func NewNoActiveFlowError(documentID interface{}) *AppError {
	return &AppError{
		Code:    "NO_ACTIVE_FLOW",
		Message: fmt.Sprintf("Document %v has no validation flow", documentID),
	}
}

// NewFlowInactiveError is returned when the flow was terminated by rejection.
func NewFlowInactiveError() *AppError {
	return &AppError{
		Code:    "FLOW_INACTIVE",
		Message: "Validation flow is no longer active",
	}
}

// NewAlreadyApprovedError is returned when the document is fully approved.
func NewAlreadyApprovedError() *AppError {
	return &AppError{
		Code:    "ALREADY_APPROVED",
		Message: "Document has already been approved",
	}
}

// NewAlreadyRejectedError is returned when the document was rejected.
func NewAlreadyRejectedError() *AppError {
	return &AppError{
		Code:    "ALREADY_REJECTED",
		Message: "Document has already been rejected",
	}
}

// NewNotAStepApproverError is returned when the actor has no step in the flow.
func NewNotAStepApproverError() *AppError {
	return &AppError{
		Code:    "NOT_A_STEP_APPROVER",
		Message: "User is not an approver in this validation flow",
	}
}

// NewStepAlreadyApprovedError is returned when the actor's step is already approved.
func NewStepAlreadyApprovedError() *AppError {
	return &AppError{
		Code:    "STEP_ALREADY_APPROVED",
		Message: "Your validation step has already been approved",
	}
}

// NewStepAlreadyRejectedError is returned when the actor's step is already rejected.
func NewStepAlreadyRejectedError() *AppError {
	return &AppError{
		Code:    "STEP_ALREADY_REJECTED",
		Message: "Your validation step has already been rejected",
	}
}

// StatusForError maps an application error to an HTTP status code.
// Validation failures map to 400, authorization failures to 403,
// state conflicts to 409, and everything unrecognized to 500.
func StatusForError(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case "VALIDATION_ERROR", "EMPTY_STEPS", "DUPLICATE_ORDER", "CROSS_TENANT_APPROVER":
		return fiber.StatusBadRequest
	case "UNAUTHORIZED":
		return fiber.StatusUnauthorized
	case "NOT_AUTHORIZED", "NOT_A_STEP_APPROVER":
		return fiber.StatusForbidden
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "FLOW_EXISTS", "NO_ACTIVE_FLOW", "FLOW_INACTIVE",
		"ALREADY_APPROVED", "ALREADY_REJECTED",
		"STEP_ALREADY_APPROVED", "STEP_ALREADY_REJECTED":
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
