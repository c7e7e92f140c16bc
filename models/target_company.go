package models

import "gorm.io/gorm"

// TargetCompany is one entry in the job-search company list the segmenter
// matches contacts against.
type TargetCompany struct {
	gorm.Model
	Name  string `gorm:"not null;uniqueIndex" json:"name"`
	Notes string `gorm:"type:text" json:"notes"`
}
