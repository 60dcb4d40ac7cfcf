package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole defines a user's privilege level within their company.
type UserRole string

const (
	// UserRoleAdmin is a company administrator; always allowed to act on flows.
	UserRoleAdmin UserRole = "admin"
	// UserRoleApprover may approve or reject validation steps.
	UserRoleApprover UserRole = "approver"
	// UserRoleMember can register and read documents but not act on flows.
	UserRoleMember UserRole = "member"
)

// User is a member of a company. Users act as document owners and as
// approvers on validation steps.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Company   *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Email     string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID if one was not provided.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CanApprove reports whether the user may act on validation flows.
// The user must be active and hold an admin or approver role.
func (u *User) CanApprove() bool {
	return u.IsActive && (u.Role == UserRoleAdmin || u.Role == UserRoleApprover)
}
