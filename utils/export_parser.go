package utils

import (
	"encoding/csv"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"linkedcrm/models"

	"gorm.io/gorm"
)

// Date layouts used in LinkedIn data exports.
const (
	connectionDateLayout = "2 Jan 2006"
	messageDateLayout    = "2006-01-02 15:04:05"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Markers found in sponsored or automated LinkedIn messages.
var sponsoredMarkers = []string{
	"%FIRSTNAME%",
	"spinmail-quill-editor",
	"Sponsored Conversation",
}

// NormalizeLinkedInURL lowercases a profile URL and strips query params and
// trailing slashes so the same profile matches across export files.
func NormalizeLinkedInURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.Index(url, "?"); idx >= 0 {
		url = url[:idx]
	}
	return strings.ToLower(strings.TrimRight(url, "/"))
}

// ParseConnectionDate parses the "Connected On" column, e.g. "18 Jun 2025".
func ParseConnectionDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(connectionDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseMessageDate parses the message DATE column, e.g. "2025-06-19 02:27:32 UTC".
func ParseMessageDate(s string) *time.Time {
	s = strings.TrimSpace(strings.Replace(s, " UTC", "", 1))
	if s == "" {
		return nil
	}
	t, err := time.Parse(messageDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// StripHTML removes markup from message content and collapses whitespace.
func StripHTML(content string) string {
	if content == "" {
		return ""
	}
	clean := htmlTagRegex.ReplaceAllString(content, " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(clean, " "))
}

// IsSponsoredMessage reports whether a message row is LinkedIn ad traffic
// rather than a real conversation.
func IsSponsoredMessage(fromName, content string) bool {
	if fromName == "LinkedIn Member" {
		return true
	}
	if content == "" {
		return false
	}
	for _, marker := range sponsoredMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// ImportResult reports what an import run did.
type ImportResult struct {
	RecordsProcessed int      `json:"records_processed"`
	ContactsCreated  int      `json:"contacts_created"`
	ContactsUpdated  int      `json:"contacts_updated"`
	MessagesCreated  int      `json:"messages_created"`
	SkippedSponsored int      `json:"skipped_sponsored"`
	Errors           []string `json:"errors"`
}

// ExportParser ingests LinkedIn data export CSVs into contacts and messages.
type ExportParser struct {
	DB     *gorm.DB
	Scorer *WarmthScorer
	MyURL  string
	Logger *log.Logger
}

func NewExportParser(db *gorm.DB, scorer *WarmthScorer, myLinkedInURL string, logger *log.Logger) *ExportParser {
	return &ExportParser{
		DB:     db,
		Scorer: scorer,
		MyURL:  NormalizeLinkedInURL(myLinkedInURL),
		Logger: logger,
	}
}

// readCSVRows decodes CSV content into header-keyed maps. Short rows are
// padded; the UTF-8 BOM LinkedIn sometimes prepends is stripped.
func readCSVRows(content string) ([]map[string]string, error) {
	content = strings.TrimPrefix(content, "\uFEFF")
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("CSV file has no header row")
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseConnections imports Connections.csv, creating or updating contacts.
// LinkedIn prepends a free-text notes block before the header row, so parsing
// starts at the line beginning with "First Name,".
func (p *ExportParser) ParseConnections(fileContent []byte, filename string) (*ImportResult, error) {
	result := &ImportResult{Errors: []string{}}

	content := strings.TrimPrefix(string(fileContent), "\uFEFF")
	lines := strings.Split(content, "\n")
	headerIndex := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "First Name,") {
			headerIndex = i
			break
		}
	}

	rows, err := readCSVRows(strings.Join(lines[headerIndex:], "\n"))
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		url := strings.TrimSpace(row["URL"])
		if url == "" {
			continue
		}
		normalizedURL := NormalizeLinkedInURL(url)

		name := strings.TrimSpace(strings.TrimSpace(row["First Name"]) + " " + strings.TrimSpace(row["Last Name"]))
		if name == "" {
			continue
		}

		connectionDate := ParseConnectionDate(row["Connected On"])

		var contact models.Contact
		err := p.DB.Where("linkedin_url = ?", normalizedURL).First(&contact).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{}
			if company := strings.TrimSpace(row["Company"]); company != "" {
				updates["company"] = company
			}
			if position := strings.TrimSpace(row["Position"]); position != "" {
				updates["position"] = position
			}
			if email := strings.TrimSpace(row["Email Address"]); email != "" {
				updates["email"] = email
			}
			if connectionDate != nil {
				updates["connection_date"] = *connectionDate
			}
			if len(updates) > 0 {
				if err := p.DB.Model(&contact).Updates(updates).Error; err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
					continue
				}
			}
			result.ContactsUpdated++
		case err == gorm.ErrRecordNotFound:
			contact = models.Contact{
				LinkedInURL:    normalizedURL,
				Name:           name,
				Company:        strings.TrimSpace(row["Company"]),
				Position:       strings.TrimSpace(row["Position"]),
				Email:          strings.TrimSpace(row["Email Address"]),
				ConnectionDate: connectionDate,
			}
			if err := p.DB.Create(&contact).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			result.ContactsCreated++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		result.RecordsProcessed++
	}

	upload := models.DataUpload{
		FileType:         models.UploadConnections,
		Filename:         filename,
		RecordsProcessed: result.RecordsProcessed,
	}
	if err := p.DB.Create(&upload).Error; err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	if p.Logger != nil {
		p.Logger.Printf("Connections import: %d processed, %d created, %d updated, %d errors",
			result.RecordsProcessed, result.ContactsCreated, result.ContactsUpdated, len(result.Errors))
	}
	return result, nil
}

// ParseMessages imports messages.csv, linking each message to the contact on
// the other end of the conversation. Direction is resolved against the
// operator's own profile URL; rows involving neither side are reported as
// errors and skipped.
func (p *ExportParser) ParseMessages(fileContent []byte, filename string) (*ImportResult, error) {
	result := &ImportResult{Errors: []string{}}

	if p.MyURL == "" {
		return nil, fmt.Errorf("operator LinkedIn URL is not configured, cannot determine message direction")
	}

	rows, err := readCSVRows(string(fileContent))
	if err != nil {
		return nil, err
	}

	// Avoids a DB round trip per message for the same contact.
	contactCache := map[string]*models.Contact{}

	for i, row := range rows {
		fromName := strings.TrimSpace(row["FROM"])
		fromURL := NormalizeLinkedInURL(row["SENDER PROFILE URL"])
		toName := strings.TrimSpace(row["TO"])
		toURL := NormalizeLinkedInURL(row["RECIPIENT PROFILE URLS"])
		contentRaw := row["CONTENT"]

		if IsSponsoredMessage(fromName, contentRaw) {
			result.SkippedSponsored++
			continue
		}

		var direction, otherName, otherURL string
		switch {
		case fromURL == p.MyURL:
			direction = models.DirectionSent
			otherName = toName
			otherURL = toURL
		case toURL == p.MyURL:
			direction = models.DirectionReceived
			otherName = fromName
			otherURL = fromURL
		default:
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: cannot determine direction for message from %s to %s", i+1, fromName, toName))
			continue
		}
		if otherURL == "" {
			continue
		}

		contact, ok := contactCache[otherURL]
		if !ok {
			var found models.Contact
			err := p.DB.Where("linkedin_url = ?", otherURL).First(&found).Error
			switch {
			case err == nil:
				contact = &found
			case err == gorm.ErrRecordNotFound:
				if otherName == "" {
					otherName = "Unknown"
				}
				contact = &models.Contact{LinkedInURL: otherURL, Name: otherName}
				if err := p.DB.Create(contact).Error; err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
					continue
				}
				result.ContactsCreated++
			default:
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			contactCache[otherURL] = contact
		}

		messageDate := ParseMessageDate(row["DATE"])
		if messageDate == nil {
			continue
		}

		contentClean := StripHTML(contentRaw)
		message := models.Message{
			ContactID:      contact.ID,
			Direction:      direction,
			Date:           *messageDate,
			Subject:        strings.TrimSpace(row["SUBJECT"]),
			Content:        contentClean,
			ContentLength:  len(contentClean),
			ConversationID: strings.TrimSpace(row["CONVERSATION ID"]),
			IsSubstantive:  Pointer(IsMessageSubstantive(contentClean)),
		}
		if err := p.DB.Create(&message).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.MessagesCreated++
		result.RecordsProcessed++
	}

	// Refresh stats and warmth for every contact that gained messages.
	for _, contact := range contactCache {
		if err := p.UpdateMessageStats(contact.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("contact %d stats: %v", contact.ID, err))
			continue
		}
		result.ContactsUpdated++
	}

	upload := models.DataUpload{
		FileType:         models.UploadMessages,
		Filename:         filename,
		RecordsProcessed: result.RecordsProcessed,
	}
	if err := p.DB.Create(&upload).Error; err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	if p.Logger != nil {
		p.Logger.Printf("Messages import: %d processed, %d messages, %d new contacts, %d sponsored skipped, %d errors",
			result.RecordsProcessed, result.MessagesCreated, result.ContactsCreated, result.SkippedSponsored, len(result.Errors))
	}
	return result, nil
}

// UpdateMessageStats recomputes a contact's message counters and warmth score
// from their stored messages.
func (p *ExportParser) UpdateMessageStats(contactID uint) error {
	var messages []models.Message
	if err := p.DB.Where("contact_id = ?", contactID).
		Order("date DESC").Find(&messages).Error; err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	updates := map[string]interface{}{
		"total_messages":         len(messages),
		"last_message_date":      messages[0].Date,
		"last_message_direction": messages[0].Direction,
	}
	if err := p.DB.Model(&models.Contact{}).Where("id = ?", contactID).
		Updates(updates).Error; err != nil {
		return err
	}

	if p.Scorer != nil {
		var contact models.Contact
		if err := p.DB.First(&contact, contactID).Error; err != nil {
			return err
		}
		return p.Scorer.UpdateContactWarmth(&contact)
	}
	return nil
}
