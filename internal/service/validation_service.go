// Package service provides application business logic (documents, validation, users).
package service

import (
	"context"
	"errors"
	"time"

	"veridoc/internal/cache"
	"veridoc/internal/models"
	"veridoc/internal/observability"
	"veridoc/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationService runs the document approval workflow. All mutating
// operations execute inside a single transaction holding a row lock on the
// flow, so concurrent approve/reject calls against the same document are
// serialized and re-check state before committing.
type ValidationService struct {
	validationRepo repository.ValidationRepository
	documentRepo   repository.DocumentRepository
	userRepo       repository.UserRepository
	db             *gorm.DB
}

// NewValidationService returns a new ValidationService.
func NewValidationService(
	validationRepo repository.ValidationRepository,
	documentRepo repository.DocumentRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
) *ValidationService {
	return &ValidationService{
		validationRepo: validationRepo,
		documentRepo:   documentRepo,
		userRepo:       userRepo,
		db:             db,
	}
}

// StepInput is one (order, approver) pair for flow creation.
type StepInput struct {
	Order      int       `json:"order"`
	ApproverID uuid.UUID `json:"approver_id"`
}

// StepView is one step in a status snapshot.
type StepView struct {
	Order         int               `json:"order"`
	ApproverID    uuid.UUID         `json:"approver_id"`
	ApproverName  string            `json:"approver_name"`
	ApproverEmail string            `json:"approver_email"`
	Status        models.StepStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// FlowStatus is the read-only snapshot returned by GetStatus. The Completed
// and Rejected flags are derived from step state, not stored.
type FlowStatus struct {
	HasValidation bool                     `json:"has_validation"`
	Status        *models.ValidationStatus `json:"status"`
	IsActive      bool                     `json:"is_active"`
	IsCompleted   bool                     `json:"is_completed"`
	IsRejected    bool                     `json:"is_rejected"`
	Steps         []StepView               `json:"steps"`
}

// ApprovalStats aggregates a user's validation activity.
type ApprovalStats struct {
	Approved     int64 `json:"approved"`
	Rejected     int64 `json:"rejected"`
	Pending      int64 `json:"pending"`
	TotalActions int64 `json:"total_actions"`
}

// CreateFlow creates the validation flow for a document together with its
// ordered steps, and marks the document pending. Nothing is persisted when
// any precondition fails.
func (s *ValidationService) CreateFlow(ctx context.Context, documentID uuid.UUID, steps []StepInput) (*models.ValidationFlow, error) {
	if len(steps) == 0 {
		return nil, models.NewEmptyStepsError()
	}
	seen := make(map[int]struct{}, len(steps))
	for _, st := range steps {
		if st.Order <= 0 {
			return nil, models.NewValidationError("Step order must be a positive integer")
		}
		if _, dup := seen[st.Order]; dup {
			return nil, models.NewDuplicateOrderError(st.Order)
		}
		seen[st.Order] = struct{}{}
	}

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.NewNotFoundError("Document", documentID)
	}

	approverIDs := make([]uuid.UUID, 0, len(steps))
	for _, st := range steps {
		approverIDs = append(approverIDs, st.ApproverID)
	}
	approvers, err := s.userRepo.ListByIDs(ctx, approverIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.User, len(approvers))
	for _, u := range approvers {
		byID[u.ID] = u
	}
	for _, st := range steps {
		approver, ok := byID[st.ApproverID]
		if !ok {
			return nil, models.NewNotFoundError("User", st.ApproverID)
		}
		if approver.CompanyID != doc.CompanyID {
			return nil, models.NewCrossTenantApproverError(st.ApproverID)
		}
	}

	flow := &models.ValidationFlow{
		DocumentID: documentID,
		Active:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ValidationFlow
		findErr := tx.Where("document_id = ?", documentID).First(&existing).Error
		switch {
		case findErr == nil:
			return models.NewFlowExistsError(documentID)
		case !errors.Is(findErr, gorm.ErrRecordNotFound):
			return findErr
		}

		if err := tx.Create(flow).Error; err != nil {
			return err
		}
		for _, st := range steps {
			step := models.ValidationStep{
				ValidationFlowID: flow.ID,
				Order:            st.Order,
				ApproverID:       st.ApproverID,
				Status:           models.StepStatusPending,
			}
			if err := tx.Create(&step).Error; err != nil {
				return err
			}
			flow.Steps = append(flow.Steps, step)
		}

		pending := models.ValidationStatusPending
		return tx.Model(&models.Document{}).
			Where("id = ?", documentID).
			Update("validation_status", pending).Error
	})
	if err != nil {
		return nil, err
	}

	observability.FlowsCreatedTotal.Inc()
	cache.InvalidateDocument(ctx, documentID)
	for _, id := range approverIDs {
		cache.InvalidateApprover(ctx, id)
	}
	return flow, nil
}

// Approve records the actor's approval on their step. Every step below the
// actor's in the hierarchy that is still pending is approved implicitly,
// without an audit action of its own. When the highest-order step is
// approved the document itself becomes approved.
func (s *ValidationService) Approve(ctx context.Context, documentID, actorID uuid.UUID, reason string) (*models.ValidationAction, error) {
	actor, err := s.loadApprover(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		action        *models.ValidationAction
		approverIDs   []uuid.UUID
		autoApproved  int64
		flowCompleted bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flow, doc, err := s.lockFlow(tx, documentID)
		if err != nil {
			return err
		}
		if status := doc.ValidationStatus; status != nil {
			if *status == models.ValidationStatusRejected {
				return models.NewAlreadyRejectedError()
			}
			if *status == models.ValidationStatusApproved {
				return models.NewAlreadyApprovedError()
			}
		}

		actorStep := findStepForActor(flow.Steps, actor.ID)
		if actorStep == nil {
			return models.NewNotAStepApproverError()
		}
		if actorStep.Status == models.StepStatusApproved {
			return models.NewStepAlreadyApprovedError()
		}
		if actorStep.Status == models.StepStatusRejected {
			return models.NewStepAlreadyRejectedError()
		}

		if err := tx.Model(actorStep).Update("status", models.StepStatusApproved).Error; err != nil {
			return err
		}

		action = &models.ValidationAction{
			DocumentID: documentID,
			StepID:     actorStep.ID,
			ActorID:    actor.ID,
			Action:     models.ActionApprove,
			Reason:     reason,
		}
		if err := tx.Create(action).Error; err != nil {
			return err
		}

		// Hierarchy rule: a higher approval implies consent from every
		// pending gate below it. No audit rows for these.
		res := tx.Model(&models.ValidationStep{}).
			Where("validation_flow_id = ? AND step_order < ? AND status = ?",
				flow.ID, actorStep.Order, models.StepStatusPending).
			Update("status", models.StepStatusApproved)
		if res.Error != nil {
			return res.Error
		}
		autoApproved = res.RowsAffected

		maxOrder := 0
		for _, st := range flow.Steps {
			if st.Order > maxOrder {
				maxOrder = st.Order
			}
			approverIDs = append(approverIDs, st.ApproverID)
		}
		if actorStep.Order == maxOrder {
			flowCompleted = true
			approved := models.ValidationStatusApproved
			if err := tx.Model(&models.Document{}).
				Where("id = ?", documentID).
				Update("validation_status", approved).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ValidationActionsTotal.WithLabelValues(string(models.ActionApprove)).Inc()
	observability.StepsAutoApprovedTotal.Add(float64(autoApproved))
	if flowCompleted {
		observability.FlowsCompletedTotal.Inc()
	}
	cache.InvalidateDocument(ctx, documentID)
	for _, id := range approverIDs {
		cache.InvalidateApprover(ctx, id)
	}
	return action, nil
}

// Reject vetoes the document. Rejection is terminal: the document becomes
// rejected, the flow is deactivated, and the remaining steps are abandoned
// in whatever state they were in.
func (s *ValidationService) Reject(ctx context.Context, documentID, actorID uuid.UUID, reason string) (*models.ValidationAction, error) {
	actor, err := s.loadApprover(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		action      *models.ValidationAction
		approverIDs []uuid.UUID
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flow, doc, err := s.lockFlow(tx, documentID)
		if err != nil {
			return err
		}
		if status := doc.ValidationStatus; status != nil {
			if *status == models.ValidationStatusRejected {
				return models.NewAlreadyRejectedError()
			}
			if *status == models.ValidationStatusApproved {
				return models.NewAlreadyApprovedError()
			}
		}

		actorStep := findStepForActor(flow.Steps, actor.ID)
		if actorStep == nil {
			return models.NewNotAStepApproverError()
		}
		if actorStep.Status == models.StepStatusRejected {
			return models.NewStepAlreadyRejectedError()
		}

		if err := tx.Model(actorStep).Update("status", models.StepStatusRejected).Error; err != nil {
			return err
		}

		action = &models.ValidationAction{
			DocumentID: documentID,
			StepID:     actorStep.ID,
			ActorID:    actor.ID,
			Action:     models.ActionReject,
			Reason:     reason,
		}
		if err := tx.Create(action).Error; err != nil {
			return err
		}

		rejected := models.ValidationStatusRejected
		if err := tx.Model(&models.Document{}).
			Where("id = ?", documentID).
			Update("validation_status", rejected).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ValidationFlow{}).
			Where("id = ?", flow.ID).
			Update("active", false).Error; err != nil {
			return err
		}

		for _, st := range flow.Steps {
			approverIDs = append(approverIDs, st.ApproverID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ValidationActionsTotal.WithLabelValues(string(models.ActionReject)).Inc()
	observability.FlowsRejectedTotal.Inc()
	cache.InvalidateDocument(ctx, documentID)
	for _, id := range approverIDs {
		cache.InvalidateApprover(ctx, id)
	}
	return action, nil
}

// GetStatus returns the validation snapshot for a document. Completed means
// the highest-order step is approved; rejected means any step is rejected.
func (s *ValidationService) GetStatus(ctx context.Context, documentID uuid.UUID) (*FlowStatus, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.NewNotFoundError("Document", documentID)
	}

	flow, err := s.validationRepo.GetFlowByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return &FlowStatus{
			HasValidation: false,
			Status:        doc.ValidationStatus,
			Steps:         []StepView{},
		}, nil
	}

	status := &FlowStatus{
		HasValidation: true,
		Status:        doc.ValidationStatus,
		IsActive:      flow.Active,
		Steps:         make([]StepView, 0, len(flow.Steps)),
	}
	maxOrder := 0
	for _, st := range flow.Steps {
		if st.Order > maxOrder {
			maxOrder = st.Order
		}
	}
	for _, st := range flow.Steps {
		view := StepView{
			Order:      st.Order,
			ApproverID: st.ApproverID,
			Status:     st.Status,
			CreatedAt:  st.CreatedAt,
			UpdatedAt:  st.UpdatedAt,
		}
		if st.Approver != nil {
			view.ApproverName = st.Approver.FullName()
			view.ApproverEmail = st.Approver.Email
		}
		if st.Order == maxOrder && st.Status == models.StepStatusApproved {
			status.IsCompleted = true
		}
		if st.Status == models.StepStatusRejected {
			status.IsRejected = true
		}
		status.Steps = append(status.Steps, view)
	}
	return status, nil
}

// ListPendingApprovals returns the documents awaiting the user's decision,
// served through the per-user cache.
func (s *ValidationService) ListPendingApprovals(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", userID)
	}

	var docs []*models.Document
	err = cache.Aside(ctx, cache.PendingApprovalsKey(userID), &docs, cache.PendingApprovalsTTL, func() error {
		var fetchErr error
		docs, fetchErr = s.validationRepo.ListPendingDocuments(ctx, userID, user.CompanyID)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	return docs, nil
}

// GetApprovalStats aggregates the user's explicit actions plus their
// current pending queue size.
func (s *ValidationService) GetApprovalStats(ctx context.Context, userID uuid.UUID) (*ApprovalStats, error) {
	var stats ApprovalStats
	err := cache.Aside(ctx, cache.ApprovalStatsKey(userID), &stats, cache.ApprovalStatsTTL, func() error {
		approved, err := s.validationRepo.CountActions(ctx, userID, models.ActionApprove)
		if err != nil {
			return err
		}
		rejected, err := s.validationRepo.CountActions(ctx, userID, models.ActionReject)
		if err != nil {
			return err
		}
		pending, err := s.ListPendingApprovals(ctx, userID)
		if err != nil {
			return err
		}
		stats = ApprovalStats{
			Approved:     approved,
			Rejected:     rejected,
			Pending:      int64(len(pending)),
			TotalActions: approved + rejected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListActions returns the audit trail for a document, oldest first.
func (s *ValidationService) ListActions(ctx context.Context, documentID uuid.UUID) ([]*models.ValidationAction, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.NewNotFoundError("Document", documentID)
	}
	return s.validationRepo.ListActionsByDocument(ctx, documentID)
}

// loadApprover resolves the actor and enforces approval capability.
func (s *ValidationService) loadApprover(ctx context.Context, actorID uuid.UUID) (*models.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, models.NewNotFoundError("User", actorID)
	}
	if !actor.CanApprove() {
		return nil, models.NewNotAuthorizedError()
	}
	return actor, nil
}

// lockFlow loads the flow and document under the flow row lock so state
// checks hold until commit. Steps come back ordered by step_order.
func (s *ValidationService) lockFlow(tx *gorm.DB, documentID uuid.UUID) (*models.ValidationFlow, *models.Document, error) {
	var flow models.ValidationFlow
	err := repository.LockForUpdate(tx).
		Where("document_id = ?", documentID).
		First(&flow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, models.NewNoActiveFlowError(documentID)
	}
	if err != nil {
		return nil, nil, err
	}
	if !flow.Active {
		return nil, nil, models.NewFlowInactiveError()
	}

	if err := tx.Where("validation_flow_id = ?", flow.ID).
		Order("step_order ASC").
		Find(&flow.Steps).Error; err != nil {
		return nil, nil, err
	}

	var doc models.Document
	if err := tx.First(&doc, "id = ?", documentID).Error; err != nil {
		return nil, nil, err
	}
	return &flow, &doc, nil
}

// findStepForActor returns the actor's step, preferring the lowest order
// when the same approver somehow holds several steps.
func findStepForActor(steps []models.ValidationStep, actorID uuid.UUID) *models.ValidationStep {
	for i := range steps {
		if steps[i].ApproverID == actorID {
			return &steps[i]
		}
	}
	return nil
}
