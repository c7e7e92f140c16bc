package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message direction values
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Audience segment tags
const (
	SegmentLATAM     = "latam"
	SegmentCascadia  = "cascadia"
	SegmentJobTarget = "job_target"
)

// AllSegments lists the valid segment tags in canonical order.
var AllSegments = []string{SegmentLATAM, SegmentCascadia, SegmentJobTarget}

// WarmthBreakdown holds the five capped sub-scores that sum to the warmth score.
// Caps: recency 30, frequency 20, depth 25, responsiveness 15, initiation 10.
type WarmthBreakdown struct {
	Recency        int `gorm:"default:0" json:"recency"`
	Frequency      int `gorm:"default:0" json:"frequency"`
	Depth          int `gorm:"default:0" json:"depth"`
	Responsiveness int `gorm:"default:0" json:"responsiveness"`
	Initiation     int `gorm:"default:0" json:"initiation"`
}

// Total returns the sum of all sub-scores.
func (b WarmthBreakdown) Total() int {
	return b.Recency + b.Frequency + b.Depth + b.Responsiveness + b.Initiation
}

// Contact represents a single LinkedIn connection
type Contact struct {
	gorm.Model

	// Profile data from exports/scraping
	LinkedInURL string `gorm:"column:linkedin_url;uniqueIndex;not null" json:"linkedin_url"`
	Name        string `gorm:"not null" json:"name"`
	Headline    string `gorm:"type:text" json:"headline"`
	Location    string `json:"location"`
	Company     string `gorm:"index" json:"company"`
	Position    string `json:"position"`
	About       string `gorm:"type:text" json:"about"`
	Email       string `json:"email"`

	ConnectionDate *time.Time `json:"connection_date"`

	// Warmth scoring (0-100). Nil until the scorer has run for this contact.
	WarmthScore        *int            `gorm:"index" json:"warmth_score"`
	WarmthBreakdown    WarmthBreakdown `gorm:"embedded;embeddedPrefix:warmth_" json:"warmth_breakdown"`
	WarmthCalculatedAt *time.Time      `json:"warmth_calculated_at"`

	// Segmentation
	SegmentTags datatypes.JSONSlice[string] `json:"segment_tags"` // auto-detected
	ManualTags  datatypes.JSONSlice[string] `json:"manual_tags"`  // user overrides

	// Message stats (derived from messages table)
	TotalMessages        int        `gorm:"default:0" json:"total_messages"`
	LastMessageDate      *time.Time `json:"last_message_date"`
	LastMessageDirection string     `json:"last_message_direction"` // 'sent' or 'received'

	// Relations
	Messages      []Message                 `gorm:"foreignKey:ContactID" json:"messages,omitempty"`
	Opportunities []ResurrectionOpportunity `gorm:"foreignKey:ContactID" json:"opportunities,omitempty"`
	QueueItems    []OutreachQueueItem       `gorm:"foreignKey:ContactID" json:"queue_items,omitempty"`
}

// HasTag reports whether the contact carries the given tag, auto or manual.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.SegmentTags {
		if t == tag {
			return true
		}
	}
	for _, t := range c.ManualTags {
		if t == tag {
			return true
		}
	}
	return false
}

// AllTags returns the union of auto and manual tags, deduplicated.
func (c *Contact) AllTags() []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, t := range append(append([]string{}, c.SegmentTags...), c.ManualTags...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}
