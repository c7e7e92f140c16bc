package utils

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"linkedcrm/models"

	"gorm.io/gorm"
)

// Scanner thresholds
const (
	DormantDays         = 60 // days without contact to consider dormant
	DormantMinWarmth    = 40 // minimum warmth score to flag as dormant
	WaitingMinWarmth    = 10 // minimum warmth to flag they_waiting
	PromiseLookbackDays = 90 // how far back to look for unfulfilled promises
	WaitingLookbackDays = 30 // how far back they_waiting and questions stay relevant
)

// Patterns that suggest a promise or commitment in a sent message.
var promiseRegex = regexp.MustCompile(`(?i)\bi'?ll\b|\bi will\b|\blet me\b|\bi'?m going to\b|\bwill send\b|\bwill share\b|\bwill get back\b|\bwill follow up\b|\bwill reach out\b|\bwill connect you\b|\bwill introduce\b|\bwill check\b|\bwill look into\b`)

// Questions that are rhetorical or small talk, not worth a hook.
var shallowQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)how are you\?`),
	regexp.MustCompile(`(?i)how's it going\?`),
	regexp.MustCompile(`(?i)what's up\?`),
	regexp.MustCompile(`(?i)how have you been\?`),
	regexp.MustCompile(`(?i)right\?`),
	regexp.MustCompile(`(?i)you know\?`),
	regexp.MustCompile(`(?i)isn't it\?`),
	regexp.MustCompile(`(?i)don't you think\?`),
}

var questionSplitRegex = regexp.MustCompile(`[^.!?]*\?`)
var sentenceSplitRegex = regexp.MustCompile(`(?:[.!?])\s+`)

// ExtractPromiseContext returns the sentence containing the first commitment
// phrase, truncated to 200 characters. Empty when no promise is present.
func ExtractPromiseContext(content string) string {
	if content == "" {
		return ""
	}
	loc := promiseRegex.FindStringIndex(content)
	if loc == nil {
		return ""
	}

	start := strings.LastIndex(content[:loc[0]], ".")
	if start == -1 {
		start = 0
	} else {
		start++
	}
	end := strings.Index(content[loc[1]:], ".")
	if end == -1 {
		end = len(content)
	} else {
		end += loc[1] + 1
	}

	sentence := strings.TrimSpace(content[start:end])
	if len(sentence) > 200 {
		sentence = sentence[:200] + "..."
	}
	return sentence
}

// ExtractQuestionContext returns the last question in the message, truncated
// to 200 characters.
func ExtractQuestionContext(content string) string {
	if content == "" {
		return ""
	}
	var questions []string
	for _, s := range sentenceSplitRegex.Split(content, -1) {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "?") {
			questions = append(questions, s)
		}
	}
	if len(questions) == 0 {
		return ""
	}
	question := questions[len(questions)-1]
	if len(question) > 200 {
		question = question[:200] + "..."
	}
	return question
}

// HasQuestion reports whether the message contains a substantive question,
// filtering out rhetorical small talk.
func HasQuestion(content string) bool {
	if content == "" || !strings.Contains(content, "?") {
		return false
	}
	for _, q := range questionSplitRegex.FindAllString(content, -1) {
		shallow := false
		for _, p := range shallowQuestionPatterns {
			if p.MatchString(q) {
				shallow = true
				break
			}
		}
		if !shallow && len(q) > 10 {
			return true
		}
	}
	return false
}

// HookDetection is one hook the detector found for a contact.
type HookDetection struct {
	HookType        string
	Detail          string
	SourceMessageID *uint
}

// DetectHooks evaluates all four hook conditions for a contact against its
// chronological message thread. Pure: no storage access.
func DetectHooks(contact *models.Contact, thread []models.Message, now time.Time) []HookDetection {
	var detections []HookDetection
	if len(thread) == 0 {
		return detections
	}

	last := thread[len(thread)-1]
	daysSinceLast := int(now.Sub(last.Date).Hours() / 24)
	warmth := 0
	if contact.WarmthScore != nil {
		warmth = *contact.WarmthScore
	}

	// dormant: warm relationship gone quiet
	if warmth >= DormantMinWarmth && daysSinceLast >= DormantDays {
		detections = append(detections, HookDetection{
			HookType: models.HookDormant,
			Detail:   fmt.Sprintf("Last message was %d days ago. Warmth score: %d", daysSinceLast, warmth),
		})
	}

	// promise_made: the operator's last sent message contains commitment
	// language with no later sent message to fulfil it
	var lastSent *models.Message
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].Direction == models.DirectionSent {
			lastSent = &thread[i]
			break
		}
	}
	if lastSent != nil {
		daysSincePromise := int(now.Sub(lastSent.Date).Hours() / 24)
		if daysSincePromise <= PromiseLookbackDays {
			if promiseContext := ExtractPromiseContext(lastSent.Content); promiseContext != "" {
				id := lastSent.ID
				detections = append(detections, HookDetection{
					HookType:        models.HookPromiseMade,
					Detail:          fmt.Sprintf("You said: %q (%d days ago)", promiseContext, daysSincePromise),
					SourceMessageID: &id,
				})
			}
		}
	}

	// question_unanswered: their latest message asks something and no sent
	// message exists after it
	questionDetected := false
	if last.Direction == models.DirectionReceived && daysSinceLast <= WaitingLookbackDays {
		if HasQuestion(last.Content) {
			if questionContext := ExtractQuestionContext(last.Content); questionContext != "" {
				id := last.ID
				detections = append(detections, HookDetection{
					HookType:        models.HookQuestionUnanswered,
					Detail:          fmt.Sprintf("They asked: %q (%d days ago)", questionContext, daysSinceLast),
					SourceMessageID: &id,
				})
				questionDetected = true
			}
		}
	}

	// they_waiting: the ball is in the operator's court. Skipped when the
	// unanswered question hook already covers it (more specific).
	if !questionDetected &&
		last.Direction == models.DirectionReceived &&
		warmth >= WaitingMinWarmth &&
		daysSinceLast <= WaitingLookbackDays {
		detections = append(detections, HookDetection{
			HookType: models.HookTheyWaiting,
			Detail:   fmt.Sprintf("Their last message was %d days ago. Ball is in your court.", daysSinceLast),
		})
	}

	return detections
}

// ResurrectionScanner detects hooks and reconciles them with stored
// opportunities.
type ResurrectionScanner struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewResurrectionScanner(db *gorm.DB, logger *log.Logger) *ResurrectionScanner {
	return &ResurrectionScanner{DB: db, Logger: logger}
}

// ScanStats reports what a scan pass changed.
type ScanStats struct {
	ContactsScanned int            `json:"contacts_scanned"`
	Found           int            `json:"found"`
	Created         int            `json:"created"`
	Updated         int            `json:"updated"`
	Deactivated     int            `json:"deactivated"`
	ByType          map[string]int `json:"by_type"`
	Errors          []string       `json:"errors,omitempty"`
}

// ScanContact evaluates one contact and syncs its opportunity rows.
func (rs *ResurrectionScanner) ScanContact(contact *models.Contact, stats *ScanStats) error {
	var thread []models.Message
	if err := rs.DB.Where("contact_id = ?", contact.ID).Order("date asc").Find(&thread).Error; err != nil {
		return fmt.Errorf("failed to load thread for contact %d: %w", contact.ID, err)
	}
	if err := ValidateMessages(thread); err != nil {
		return fmt.Errorf("contact %d: %w", contact.ID, err)
	}

	detections := DetectHooks(contact, thread, time.Now().UTC())
	return rs.syncOpportunities(contact.ID, detections, stats)
}

// syncOpportunities diffs the freshly-computed detections against stored
// rows, preserving the one-active-row-per-(contact, hook) invariant and the
// stickiness of human dismissals.
func (rs *ResurrectionScanner) syncOpportunities(contactID uint, detections []HookDetection, stats *ScanStats) error {
	detected := make(map[string]HookDetection, len(detections))
	for _, d := range detections {
		detected[d.HookType] = d
	}

	var existing []models.ResurrectionOpportunity
	if err := rs.DB.Where("contact_id = ?", contactID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load opportunities for contact %d: %w", contactID, err)
	}
	byType := make(map[string]*models.ResurrectionOpportunity, len(existing))
	for i := range existing {
		byType[existing[i].HookType] = &existing[i]
	}

	now := time.Now().UTC()
	for _, hookType := range models.AllHookTypes {
		detection, isDetected := detected[hookType]
		row := byType[hookType]

		switch {
		case isDetected && row == nil:
			opp := models.ResurrectionOpportunity{
				ContactID:       contactID,
				HookType:        hookType,
				HookDetail:      detection.Detail,
				SourceMessageID: detection.SourceMessageID,
				DetectedAt:      now,
				IsActive:        true,
			}
			if err := rs.DB.Create(&opp).Error; err != nil {
				return fmt.Errorf("failed to create %s opportunity for contact %d: %w", hookType, contactID, err)
			}
			if stats != nil {
				stats.Found++
				stats.Created++
				stats.ByType[hookType]++
			}

		case isDetected && row.IsActive:
			updates := map[string]interface{}{
				"hook_detail":       detection.Detail,
				"source_message_id": detection.SourceMessageID,
				"detected_at":       now,
			}
			if err := rs.DB.Model(row).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update %s opportunity for contact %d: %w", hookType, contactID, err)
			}
			if stats != nil {
				stats.Found++
				stats.Updated++
				stats.ByType[hookType]++
			}

		case isDetected && row.DismissedAt != nil:
			// Dismissed and the condition never went false in between:
			// the dismissal stands.
			if stats != nil {
				stats.Found++
			}

		case isDetected:
			// Inactive without a dismissal means the condition cleared at
			// some point and is now true again: re-arm.
			updates := map[string]interface{}{
				"hook_detail":       detection.Detail,
				"source_message_id": detection.SourceMessageID,
				"detected_at":       now,
				"is_active":         true,
			}
			if err := rs.DB.Model(row).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to reactivate %s opportunity for contact %d: %w", hookType, contactID, err)
			}
			if stats != nil {
				stats.Found++
				stats.Updated++
				stats.ByType[hookType]++
			}

		case row != nil:
			// Condition no longer holds. Deactivate and clear any dismissal
			// so a future re-detection starts fresh.
			if row.IsActive || row.DismissedAt != nil {
				updates := map[string]interface{}{
					"is_active":    false,
					"dismissed_at": nil,
				}
				if err := rs.DB.Model(row).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to deactivate %s opportunity for contact %d: %w", hookType, contactID, err)
				}
				if stats != nil && row.IsActive {
					stats.Deactivated++
				}
			}
		}
	}
	return nil
}

// ScanAll runs hook detection over every contact with message history.
func (rs *ResurrectionScanner) ScanAll() (*ScanStats, error) {
	var contacts []models.Contact
	if err := rs.DB.Where("total_messages > 0").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	stats := &ScanStats{ByType: make(map[string]int)}
	for i := range contacts {
		if err := rs.ScanContact(&contacts[i], stats); err != nil {
			stats.Errors = append(stats.Errors, err.Error())
			continue
		}
		stats.ContactsScanned++
	}
	return stats, nil
}

// Dismiss marks one opportunity as addressed by a human. The row stays
// dismissed across rescans until the underlying condition clears.
func (rs *ResurrectionScanner) Dismiss(opportunityID uint) error {
	var opp models.ResurrectionOpportunity
	if err := rs.DB.First(&opp, opportunityID).Error; err != nil {
		return err
	}
	now := time.Now().UTC()
	return rs.DB.Model(&opp).Updates(map[string]interface{}{
		"is_active":    false,
		"dismissed_at": now,
	}).Error
}

// DismissForContact deactivates every active opportunity for a contact.
// Called by the outreach queue when a message is queued for that contact.
func (rs *ResurrectionScanner) DismissForContact(contactID uint) (int64, error) {
	now := time.Now().UTC()
	result := rs.DB.Model(&models.ResurrectionOpportunity{}).
		Where("contact_id = ? AND is_active = ?", contactID, true).
		Updates(map[string]interface{}{
			"is_active":    false,
			"dismissed_at": now,
		})
	return result.RowsAffected, result.Error
}

// ActiveOpportunity is an opportunity joined with its contact for listings.
type ActiveOpportunity struct {
	ID          uint      `json:"id"`
	ContactID   uint      `json:"contact_id"`
	ContactName string    `json:"contact_name"`
	Company     string    `json:"contact_company"`
	Headline    string    `json:"contact_headline"`
	LinkedInURL string    `json:"contact_linkedin_url"`
	WarmthScore *int      `json:"warmth_score"`
	HookType    string    `json:"hook_type"`
	HookDetail  string    `json:"hook_detail"`
	DetectedAt  time.Time `json:"detected_at"`
}

// ActiveOpportunities lists active hooks with contact info, warmest first.
func (rs *ResurrectionScanner) ActiveOpportunities(hookType string, limit int) ([]ActiveOpportunity, error) {
	query := rs.DB.Model(&models.ResurrectionOpportunity{}).
		Select(`resurrection_opportunities.id, resurrection_opportunities.contact_id,
			contacts.name AS contact_name, contacts.company, contacts.headline,
			contacts.linkedin_url, contacts.warmth_score,
			resurrection_opportunities.hook_type, resurrection_opportunities.hook_detail,
			resurrection_opportunities.detected_at`).
		Joins("JOIN contacts ON contacts.id = resurrection_opportunities.contact_id").
		Where("resurrection_opportunities.is_active = ?", true)

	if hookType != "" {
		query = query.Where("resurrection_opportunities.hook_type = ?", hookType)
	}

	var opportunities []ActiveOpportunity
	err := query.Order("contacts.warmth_score DESC NULLS LAST").Limit(limit).Scan(&opportunities).Error
	return opportunities, err
}
