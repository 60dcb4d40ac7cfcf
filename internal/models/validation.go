package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StepStatus is the state of a single validation step. Transitions are
// pending -> approved or pending -> rejected, both terminal per step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not been acted on.
	StepStatusPending StepStatus = "pending"
	// StepStatusApproved indicates the step was approved, explicitly or by
	// a higher-order approval.
	StepStatusApproved StepStatus = "approved"
	// StepStatusRejected indicates the step's approver vetoed the document.
	StepStatusRejected StepStatus = "rejected"
)

// ActionKind is the kind of an audit log entry.
type ActionKind string

const (
	// ActionApprove records an explicit approval.
	ActionApprove ActionKind = "approve"
	// ActionReject records an explicit rejection.
	ActionReject ActionKind = "reject"
)

// ValidationFlow is the per-document approval workflow instance. A document
// has at most one flow. Active is cleared exactly once, on the first
// rejection, and never set again.
type ValidationFlow struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`
	Document   *Document        `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Active     bool             `gorm:"not null;default:true" json:"active"`
	Steps      []ValidationStep `gorm:"foreignKey:ValidationFlowID" json:"steps,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (ValidationFlow) TableName() string {
	return "validation_flows"
}

// BeforeCreate assigns a UUID if one was not provided.
func (f *ValidationFlow) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ValidationStep is one ordered gate in a flow, bound to one approver.
// Higher Order means higher authority; the maximum order in a flow is the
// final sign-off. Order is stored as step_order because ORDER is reserved
// in SQL.
type ValidationStep struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ValidationFlowID uuid.UUID  `gorm:"type:uuid;not null;index:idx_validation_steps_flow_order,unique;index:idx_validation_steps_flow_approver" json:"validation_flow_id"`
	Order            int        `gorm:"column:step_order;not null;index:idx_validation_steps_flow_order,unique" json:"order"`
	ApproverID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_validation_steps_flow_approver" json:"approver_id"`
	Approver         *User      `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Status           StepStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (ValidationStep) TableName() string {
	return "validation_steps"
}

// BeforeCreate assigns a UUID if one was not provided.
func (s *ValidationStep) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ValidationAction is the append-only audit log of explicit approve/reject
// calls. Auto-approved steps (hierarchy rule) do not produce actions; only
// the acting approver's own decision is recorded.
type ValidationAction struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document       `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	StepID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"step_id"`
	Step       *ValidationStep `gorm:"foreignKey:StepID" json:"step,omitempty"`
	ActorID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"actor_id"`
	Actor      *User           `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action     ActionKind      `gorm:"type:varchar(10);not null;index" json:"action"`
	Reason     string          `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ValidationAction) TableName() string {
	return "validation_actions"
}

// BeforeCreate assigns a UUID if one was not provided.
func (a *ValidationAction) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
