package utils

import (
	"errors"
	"fmt"
	"log"
	"time"

	"linkedcrm/models"

	"gorm.io/gorm"
)

// Valid use cases, outreach types, and purposes for queue items.
var (
	ValidUseCases      = []string{"latam", "cascadia", "job_search"}
	ValidOutreachTypes = []string{"resurrection", "warm", "cold"}
	ValidPurposes      = []string{
		"reconnect", "introduce", "follow_up", "invite_community",
		"ask_advice", "congratulate", "share_resource",
	}
)

// statusTransitions defines the allowed status machine. Normal flow is
// forward-only; approved may move back to draft for another edit pass.
var statusTransitions = map[string][]string{
	models.StatusDraft:     {models.StatusApproved},
	models.StatusApproved:  {models.StatusSent, models.StatusDraft},
	models.StatusSent:      {models.StatusResponded},
	models.StatusResponded: {},
}

// ErrDuplicateQueueItem is returned when a contact already has a draft or
// approved item; one active outreach per contact.
var ErrDuplicateQueueItem = errors.New("contact already has an active queue item")

// QueueService owns the outreach workflow and its invariants.
type QueueService struct {
	DB      *gorm.DB
	Scanner *ResurrectionScanner
	Logger  *log.Logger
}

func NewQueueService(db *gorm.DB, scanner *ResurrectionScanner, logger *log.Logger) *QueueService {
	return &QueueService{DB: db, Scanner: scanner, Logger: logger}
}

// ActiveItem returns the contact's draft or approved queue item, if any.
func (qs *QueueService) ActiveItem(contactID uint) (*models.OutreachQueueItem, error) {
	var item models.OutreachQueueItem
	err := qs.DB.Where("contact_id = ? AND status IN ?", contactID, models.ActiveQueueStatuses).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Enqueue adds a generated message as a draft. Queuing outreach for a contact
// auto-dismisses their active resurrection opportunities; the hook is being
// acted on.
func (qs *QueueService) Enqueue(contactID uint, useCase, outreachType, purpose, message string) (*models.OutreachQueueItem, error) {
	var contact models.Contact
	if err := qs.DB.First(&contact, contactID).Error; err != nil {
		return nil, err
	}

	existing, err := qs.ActiveItem(contactID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w (status: %s, item: %d)", ErrDuplicateQueueItem, existing.Status, existing.ID)
	}

	item := models.OutreachQueueItem{
		ContactID:        contactID,
		UseCase:          useCase,
		OutreachType:     outreachType,
		Purpose:          purpose,
		GeneratedMessage: message,
		Status:           models.StatusDraft,
	}
	if err := qs.DB.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create queue item: %w", err)
	}

	if qs.Scanner != nil {
		if dismissed, err := qs.Scanner.DismissForContact(contactID); err != nil {
			LogError("queue_auto_dismiss", err, map[string]interface{}{"contact_id": contactID})
		} else if dismissed > 0 && qs.Logger != nil {
			qs.Logger.Printf("Auto-dismissed %d opportunities for contact %d", dismissed, contactID)
		}
	}

	return &item, nil
}

// Transition moves a queue item to a new status, validating the move and
// stamping the transition timestamp.
func (qs *QueueService) Transition(itemID uint, newStatus string) (*models.OutreachQueueItem, error) {
	var item models.OutreachQueueItem
	if err := qs.DB.First(&item, itemID).Error; err != nil {
		return nil, err
	}

	allowed := statusTransitions[item.Status]
	ok := false
	for _, s := range allowed {
		if s == newStatus {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("cannot transition from %q to %q (allowed: %v)", item.Status, newStatus, allowed)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{"status": newStatus}
	switch newStatus {
	case models.StatusApproved:
		updates["approved_at"] = now
	case models.StatusSent:
		updates["sent_at"] = now
	case models.StatusResponded:
		updates["replied_at"] = now
	}

	if err := qs.DB.Model(&item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update queue item: %w", err)
	}
	return &item, nil
}

// UpdateMessage edits the text on a draft. Only drafts are editable.
func (qs *QueueService) UpdateMessage(itemID uint, message string) (*models.OutreachQueueItem, error) {
	var item models.OutreachQueueItem
	if err := qs.DB.First(&item, itemID).Error; err != nil {
		return nil, err
	}
	if item.Status != models.StatusDraft {
		return nil, fmt.Errorf("can only edit drafts, current status: %s", item.Status)
	}
	if err := qs.DB.Model(&item).Update("generated_message", message).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a draft or approved item. Sent and responded items are
// retained for history.
func (qs *QueueService) Delete(itemID uint) error {
	var item models.OutreachQueueItem
	if err := qs.DB.First(&item, itemID).Error; err != nil {
		return err
	}
	if item.Status == models.StatusSent || item.Status == models.StatusResponded {
		return fmt.Errorf("cannot delete items with status %q, sent and responded items are kept for history", item.Status)
	}
	return qs.DB.Delete(&item).Error
}

// QueueItemView joins a queue item with contact display fields.
type QueueItemView struct {
	models.OutreachQueueItem
	ContactName     string `json:"contact_name"`
	ContactHeadline string `json:"contact_headline"`
	ContactCompany  string `json:"contact_company"`
}

// List returns queue items with contact info, newest first.
func (qs *QueueService) List(status, useCase string, limit, offset int) ([]QueueItemView, int64, error) {
	query := qs.DB.Model(&models.OutreachQueueItem{}).
		Select("outreach_queue_items.*, contacts.name AS contact_name, contacts.headline AS contact_headline, contacts.company AS contact_company").
		Joins("JOIN contacts ON contacts.id = outreach_queue_items.contact_id")

	countQuery := qs.DB.Model(&models.OutreachQueueItem{})
	if status != "" {
		query = query.Where("outreach_queue_items.status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}
	if useCase != "" {
		query = query.Where("outreach_queue_items.use_case = ?", useCase)
		countQuery = countQuery.Where("use_case = ?", useCase)
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []QueueItemView
	err := query.Order("outreach_queue_items.created_at DESC").
		Limit(limit).Offset(offset).Scan(&items).Error
	return items, total, err
}

// QueueStats summarizes the queue by status and use case.
type QueueStats struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	ByUseCase map[string]int64 `json:"by_use_case"`
}

func (qs *QueueService) Stats() (*QueueStats, error) {
	stats := &QueueStats{
		ByStatus:  make(map[string]int64),
		ByUseCase: make(map[string]int64),
	}

	type countRow struct {
		Key   string
		Count int64
	}

	var byStatus []countRow
	if err := qs.DB.Model(&models.OutreachQueueItem{}).
		Select("status AS key, COUNT(id) AS count").
		Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Key] = row.Count
		stats.Total += row.Count
	}

	var byUseCase []countRow
	if err := qs.DB.Model(&models.OutreachQueueItem{}).
		Select("use_case AS key, COUNT(id) AS count").
		Group("use_case").Scan(&byUseCase).Error; err != nil {
		return nil, err
	}
	for _, row := range byUseCase {
		stats.ByUseCase[row.Key] = row.Count
	}

	return stats, nil
}

// Contains reports whether value is in the given list. Used by controllers
// to validate enum query/body fields.
func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
