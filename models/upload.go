package models

import "gorm.io/gorm"

// Upload file types
const (
	UploadConnections = "connections"
	UploadMessages    = "messages"
)

// DataUpload records one processed CSV export for the import history view.
type DataUpload struct {
	gorm.Model
	FileType         string `gorm:"not null" json:"file_type"` // 'connections' or 'messages'
	Filename         string `json:"filename"`
	RecordsProcessed int    `gorm:"default:0" json:"records_processed"`
}
