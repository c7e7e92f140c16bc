package models

import (
	"time"

	"gorm.io/gorm"
)

// Outreach queue statuses. Normal flow is draft → approved → sent → responded,
// with approved → draft as the one allowed backward move.
const (
	StatusDraft     = "draft"
	StatusApproved  = "approved"
	StatusSent      = "sent"
	StatusResponded = "responded"
)

// ActiveQueueStatuses are the statuses that count toward the
// one-active-item-per-contact rule.
var ActiveQueueStatuses = []string{StatusDraft, StatusApproved}

// AllQueueStatuses lists every valid queue status.
var AllQueueStatuses = []string{StatusDraft, StatusApproved, StatusSent, StatusResponded}

// OutreachQueueItem tracks one generated message through the approval workflow.
type OutreachQueueItem struct {
	gorm.Model
	ContactID uint `gorm:"not null;index" json:"contact_id"`

	UseCase      string `gorm:"not null" json:"use_case"`      // latam, cascadia, job_search
	OutreachType string `gorm:"not null" json:"outreach_type"` // resurrection, warm, cold
	Purpose      string `gorm:"not null;default:reconnect" json:"purpose"`

	GeneratedMessage string `gorm:"type:text" json:"generated_message"`

	Status string `gorm:"not null;default:draft;index" json:"status"`

	// One timestamp per transition
	ApprovedAt *time.Time `json:"approved_at"`
	SentAt     *time.Time `json:"sent_at"`
	RepliedAt  *time.Time `json:"replied_at"`

	Contact Contact `gorm:"foreignKey:ContactID" json:"-"`
}
