package models

import (
	"time"

	"gorm.io/gorm"
)

// Resurrection hook types
const (
	HookDormant            = "dormant"
	HookPromiseMade        = "promise_made"
	HookQuestionUnanswered = "question_unanswered"
	HookTheyWaiting        = "they_waiting"
)

// AllHookTypes lists every hook the scanner can produce.
var AllHookTypes = []string{
	HookDormant,
	HookPromiseMade,
	HookQuestionUnanswered,
	HookTheyWaiting,
}

// ResurrectionOpportunity is a detected reason to re-engage a contact.
// At most one row exists per (contact, hook_type); re-detection updates
// the existing row instead of inserting a duplicate.
type ResurrectionOpportunity struct {
	gorm.Model
	ContactID uint   `gorm:"not null;uniqueIndex:uq_contact_hook" json:"contact_id"`
	HookType  string `gorm:"not null;uniqueIndex:uq_contact_hook" json:"hook_type"`

	HookDetail      string `gorm:"type:text" json:"hook_detail"`
	SourceMessageID *uint  `json:"source_message_id"`

	DetectedAt time.Time `gorm:"not null" json:"detected_at"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`

	// Set when a human (or the queue's auto-dismiss) dismissed the row.
	// Cleared by the scanner once the underlying condition goes false,
	// which re-arms the hook for future detections.
	DismissedAt *time.Time `json:"dismissed_at"`

	Contact       Contact  `gorm:"foreignKey:ContactID" json:"-"`
	SourceMessage *Message `gorm:"foreignKey:SourceMessageID" json:"-"`
}
