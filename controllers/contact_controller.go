package controller

import (
	"errors"
	"log"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"linkedcrm/models"
	"linkedcrm/utils"
)

type ContactController struct {
	DB        *gorm.DB
	Scorer    *utils.WarmthScorer
	Segmenter *utils.Segmenter
	Logger    *log.Logger
}

func NewContactController(db *gorm.DB, scorer *utils.WarmthScorer, segmenter *utils.Segmenter, logger *log.Logger) *ContactController {
	return &ContactController{
		DB:        db,
		Scorer:    scorer,
		Segmenter: segmenter,
		Logger:    logger,
	}
}

var contactSortColumns = map[string]string{
	"warmth":         "warmth_score",
	"name":           "name",
	"last_message":   "last_message_date",
	"total_messages": "total_messages",
}

// ListContacts returns paginated contacts with search, warmth range, segment
// and message filters.
func (cc *ContactController) ListContacts(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("page_size", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := cc.DB.Model(&models.Contact{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR company LIKE ? OR headline LIKE ?", pattern, pattern, pattern)
	}
	if warmthMin := c.Query("warmth_min"); warmthMin != "" {
		query = query.Where("warmth_score >= ?", utils.ParseUint(warmthMin))
	}
	if warmthMax := c.Query("warmth_max"); warmthMax != "" {
		query = query.Where("warmth_score <= ?", utils.ParseUint(warmthMax))
	}
	switch c.Query("has_messages") {
	case "true":
		query = query.Where("total_messages > 0")
	case "false":
		query = query.Where("total_messages = 0")
	}
	if segment := c.Query("segment"); segment != "" {
		query = query.Where("segment_tags LIKE ?", "%\""+segment+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}

	sortCol, ok := contactSortColumns[c.Query("sort_by", "warmth")]
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid sort_by value", nil)
	}
	dir := "DESC"
	if c.Query("sort_order", "desc") == "asc" {
		dir = "ASC"
	}

	var contacts []models.Contact
	if err := query.Order(sortCol + " " + dir + " NULLS LAST").
		Offset((page - 1) * limit).Limit(limit).
		Find(&contacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contacts", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  contacts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// TopWarmth returns the warmest contacts for the dashboard.
func (cc *ContactController) TopWarmth(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var contacts []models.Contact
	if err := cc.DB.Where("warmth_score > 0").
		Order("warmth_score DESC").Limit(limit).
		Find(&contacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contacts", err)
	}

	return c.JSON(utils.SuccessResponse(contacts))
}

// ContactStats returns totals and the warmth distribution.
func (cc *ContactController) ContactStats(c *fiber.Ctx) error {
	var total, withMessages int64
	if err := cc.DB.Model(&models.Contact{}).Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}
	if err := cc.DB.Model(&models.Contact{}).Where("total_messages > 0").Count(&withMessages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}

	buckets := map[string]int64{}
	bucketConditions := []struct {
		name string
		cond string
	}{
		{"hot", "warmth_score >= 70"},
		{"warm", "warmth_score >= 40 AND warmth_score < 70"},
		{"cool", "warmth_score >= 10 AND warmth_score < 40"},
		{"cold", "warmth_score >= 1 AND warmth_score < 10"},
	}
	var bucketed int64
	for _, b := range bucketConditions {
		var count int64
		if err := cc.DB.Model(&models.Contact{}).Where(b.cond).Count(&count).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
		}
		buckets[b.name] = count
		bucketed += count
	}
	buckets["none"] = total - bucketed

	var avgWarmth float64
	row := cc.DB.Model(&models.Contact{}).Where("warmth_score > 0").
		Select("AVG(warmth_score)").Row()
	if err := row.Scan(&avgWarmth); err != nil {
		avgWarmth = 0
	}

	return c.JSON(fiber.Map{
		"total_contacts":            total,
		"contacts_with_messages":    withMessages,
		"contacts_without_messages": total - withMessages,
		"warmth_distribution":       buckets,
		"average_warmth":            math.Round(avgWarmth*10) / 10,
	})
}

// GetContact returns a contact with warmth breakdown, recent messages, and
// active resurrection opportunities.
func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	contactID := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contact", err)
	}

	var opportunities []models.ResurrectionOpportunity
	if err := cc.DB.Where("contact_id = ? AND is_active = ?", contactID, true).
		Find(&opportunities).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch opportunities", err)
	}

	var messages []models.Message
	if err := cc.DB.Where("contact_id = ?", contactID).
		Order("date DESC").Limit(50).Find(&messages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"contact":                    contact,
		"resurrection_opportunities": opportunities,
		"recent_messages":            messages,
	}))
}

// UpdateTags replaces a contact's manual tags.
func (cc *ContactController) UpdateTags(c *fiber.Ctx) error {
	contactID := utils.ParseUint(c.Params("id"))

	var input struct {
		ManualTags []string `json:"manual_tags"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.ManualTags == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "manual_tags is required", nil)
	}

	var contact models.Contact
	if err := cc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contact", err)
	}

	if err := cc.DB.Model(&contact).
		Update("manual_tags", datatypes.NewJSONSlice(input.ManualTags)).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update tags", err)
	}

	return c.JSON(fiber.Map{"status": "updated", "manual_tags": input.ManualTags})
}

// RecalculateWarmth recomputes warmth scores for all contacts.
func (cc *ContactController) RecalculateWarmth(c *fiber.Ctx) error {
	result, err := cc.Scorer.RecalculateAll()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Warmth recalculation failed", err)
	}

	cc.Logger.Printf("Warmth recalculation: %d contacts processed", result.ContactsProcessed)
	return c.JSON(utils.SuccessResponse(result))
}

// RunSegmentation re-tags all contacts against the current segment rules.
func (cc *ContactController) RunSegmentation(c *fiber.Ctx) error {
	result, err := cc.Segmenter.SegmentAll()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Segmentation failed", err)
	}

	cc.Logger.Printf("Segmentation: %d contacts processed", result.ContactsProcessed)
	return c.JSON(utils.SuccessResponse(result))
}
