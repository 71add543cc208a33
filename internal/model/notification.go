package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message for a single user, created when one of
// their requests moves through the workflow. Delivery to connected clients
// happens over the websocket hub; the row is the durable copy.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Message     string     `gorm:"type:text" json:"message"`
	RequestType string     `gorm:"type:varchar(20)" json:"request_type"`
	Target      string     `gorm:"type:varchar(50);index" json:"target"` // reference number
	Read        bool       `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
