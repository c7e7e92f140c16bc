package controller

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linkedcrm/models"
	"linkedcrm/utils"
)

type QueueController struct {
	DB     *gorm.DB
	Queue  *utils.QueueService
	Logger *log.Logger
}

func NewQueueController(db *gorm.DB, queue *utils.QueueService, logger *log.Logger) *QueueController {
	return &QueueController{
		DB:     db,
		Queue:  queue,
		Logger: logger,
	}
}

// AddToQueue creates a draft outreach item for a contact.
func (qc *QueueController) AddToQueue(c *fiber.Ctx) error {
	var input struct {
		ContactID    uint   `json:"contact_id" validate:"required"`
		UseCase      string `json:"use_case" validate:"required"`
		OutreachType string `json:"outreach_type" validate:"required"`
		Purpose      string `json:"purpose"`
		Message      string `json:"message" validate:"required,min=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if !utils.Contains(utils.ValidUseCases, input.UseCase) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid use_case, must be one of: "+strings.Join(utils.ValidUseCases, ", "), nil)
	}
	if !utils.Contains(utils.ValidOutreachTypes, input.OutreachType) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid outreach_type, must be one of: "+strings.Join(utils.ValidOutreachTypes, ", "), nil)
	}
	if input.Purpose == "" {
		input.Purpose = "reconnect"
	}
	if !utils.Contains(utils.ValidPurposes, input.Purpose) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid purpose, must be one of: "+strings.Join(utils.ValidPurposes, ", "), nil)
	}

	item, err := qc.Queue.Enqueue(input.ContactID, input.UseCase, input.OutreachType, input.Purpose, input.Message)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
		}
		if errors.Is(err, utils.ErrDuplicateQueueItem) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Contact already has an active queue item", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add to queue", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(item))
}

// ListQueue returns queue items with contact info. Filters: status, use_case.
func (qc *QueueController) ListQueue(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !utils.Contains(models.AllQueueStatuses, status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", nil)
	}
	useCase := c.Query("use_case")
	if useCase != "" && !utils.Contains(utils.ValidUseCases, useCase) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid use_case", nil)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("page_size", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	items, total, err := qc.Queue.List(status, useCase, limit, (page-1)*limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch queue", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  items,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// UpdateStatus moves a queue item through the workflow.
func (qc *QueueController) UpdateStatus(c *fiber.Ctx) error {
	itemID := utils.ParseUint(c.Params("id"))

	var input struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if !utils.Contains(models.AllQueueStatuses, input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", nil)
	}

	item, err := qc.Queue.Transition(itemID, input.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Queue item not found", nil)
		}
		if strings.Contains(err.Error(), "cannot transition") {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update status", err)
	}

	return c.JSON(utils.SuccessResponse(item))
}

// UpdateMessage edits the draft text of a queue item.
func (qc *QueueController) UpdateMessage(c *fiber.Ctx) error {
	itemID := utils.ParseUint(c.Params("id"))

	var input struct {
		Message string `json:"message" validate:"required,min=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	item, err := qc.Queue.UpdateMessage(itemID, input.Message)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Queue item not found", nil)
		}
		if strings.Contains(err.Error(), "only edit drafts") {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update message", err)
	}

	return c.JSON(utils.SuccessResponse(item))
}

// DeleteQueueItem removes a draft or approved item.
func (qc *QueueController) DeleteQueueItem(c *fiber.Ctx) error {
	itemID := utils.ParseUint(c.Params("id"))

	if err := qc.Queue.Delete(itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Queue item not found", nil)
		}
		if strings.Contains(err.Error(), "cannot delete") {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete queue item", err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// QueueStats summarizes the queue by status and use case.
func (qc *QueueController) QueueStats(c *fiber.Ctx) error {
	stats, err := qc.Queue.Stats()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute queue stats", err)
	}
	return c.JSON(utils.SuccessResponse(stats))
}
