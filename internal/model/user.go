package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approver roles recognized by the route middleware. The three gate roles
// mirror the approval checkpoints; staff can file and track requests.
const (
	RoleAdmin              = "admin"
	RoleStaff              = "staff"
	RoleImmediateHead      = "immediate_head"
	RoleGSODirector        = "gso_director"
	RoleOperationsDirector = "operations_director"
)

// User exists for request attribution and role checks. Session management
// (login, refresh tokens, password reset) is handled by the identity service
// in front of this API.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"`
	Role       string         `gorm:"type:varchar(50);not null" json:"role"`
	Department string         `gorm:"type:varchar(100)" json:"department"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
