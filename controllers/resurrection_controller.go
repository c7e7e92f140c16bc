package controller

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linkedcrm/models"
	"linkedcrm/utils"
)

type ResurrectionController struct {
	DB      *gorm.DB
	Scanner *utils.ResurrectionScanner
	Logger  *log.Logger
}

func NewResurrectionController(db *gorm.DB, scanner *utils.ResurrectionScanner, logger *log.Logger) *ResurrectionController {
	return &ResurrectionController{
		DB:      db,
		Scanner: scanner,
		Logger:  logger,
	}
}

// Scan runs a full resurrection scan across all contacts with messages.
func (rc *ResurrectionController) Scan(c *fiber.Ctx) error {
	stats, err := rc.Scanner.ScanAll()
	if err != nil {
		utils.LogError("resurrection_scan", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Scan failed", err)
	}

	rc.Logger.Printf("Resurrection scan: %d contacts, %d hooks found", stats.ContactsScanned, stats.Found)
	return c.JSON(utils.SuccessResponse(stats))
}

// ListOpportunities returns active opportunities, warmest contacts first.
// Optional hook_type filter.
func (rc *ResurrectionController) ListOpportunities(c *fiber.Ctx) error {
	hookType := c.Query("hook_type")
	if hookType != "" && !utils.Contains(models.AllHookTypes, hookType) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid hook_type", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	opportunities, err := rc.Scanner.ActiveOpportunities(hookType, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch opportunities", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"opportunities": opportunities,
		"count":         len(opportunities),
	}))
}

// Dismiss marks one opportunity as handled. The scanner will not reactivate
// it until its condition clears and re-fires.
func (rc *ResurrectionController) Dismiss(c *fiber.Ctx) error {
	opportunityID := utils.ParseUint(c.Params("id"))

	if err := rc.Scanner.Dismiss(opportunityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Opportunity not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to dismiss opportunity", err)
	}

	return c.JSON(fiber.Map{"status": "dismissed"})
}

// DismissForContact dismisses all active opportunities for a contact.
func (rc *ResurrectionController) DismissForContact(c *fiber.Ctx) error {
	contactID := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := rc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contact", err)
	}

	dismissed, err := rc.Scanner.DismissForContact(contactID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to dismiss opportunities", err)
	}

	return c.JSON(fiber.Map{"status": "dismissed", "count": dismissed})
}
