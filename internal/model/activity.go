package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity log actions
const (
	ActionCreateRequest  = "CREATE_REQUEST"
	ActionUpdateRequest  = "UPDATE_REQUEST"
	ActionUpdateStatus   = "UPDATE_STATUS"
	ActionUpdateApproval = "UPDATE_APPROVAL"
	ActionArchiveRequest = "ARCHIVE_REQUEST"
	ActionRestoreRequest = "RESTORE_REQUEST"
)

// ActivityLog tracks who did what to which request and when. Rows are
// appended after every mutating transition; a failed append never rolls the
// transition back.
type ActivityLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PerformedBy *uuid.UUID `gorm:"type:uuid;index" json:"performed_by"` // nil for unauthenticated/system writes
	Performer   *User      `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
	Action      string     `gorm:"type:varchar(50);not null;index" json:"action"`
	RequestType string     `gorm:"type:varchar(20);not null;index" json:"request_type"`
	Target      string     `gorm:"type:varchar(50);index" json:"target"` // reference number
	Details     string     `gorm:"type:text" json:"details"`             // human readable, e.g. "gso_director Approved by gso_director"
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
