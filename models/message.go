package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents one directed communication with a contact.
// Messages are immutable after import; ordering by Date drives scoring
// and hook detection.
type Message struct {
	gorm.Model
	ContactID uint `gorm:"not null;index" json:"contact_id"`

	Direction     string    `gorm:"not null" json:"direction"` // 'sent' or 'received'
	Date          time.Time `gorm:"not null;index" json:"date"`
	Subject       string    `json:"subject"`
	Content       string    `gorm:"type:text" json:"content"`
	ContentLength int       `gorm:"default:0" json:"content_length"`

	// Nil until the substantive pass has classified the message.
	IsSubstantive *bool `json:"is_substantive"`

	ConversationID string `gorm:"index" json:"conversation_id"`

	Contact Contact `gorm:"foreignKey:ContactID" json:"-"`
}
