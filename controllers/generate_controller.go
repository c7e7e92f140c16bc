package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linkedcrm/models"
	"linkedcrm/utils"
)

type GenerateController struct {
	DB        *gorm.DB
	Generator *utils.MessageGenerator
	Logger    *log.Logger
}

func NewGenerateController(db *gorm.DB, generator *utils.MessageGenerator, logger *log.Logger) *GenerateController {
	return &GenerateController{
		DB:        db,
		Generator: generator,
		Logger:    logger,
	}
}

// GenerateMessage drafts outreach message variations for a contact. Rate
// limited upstream; every call spends API tokens.
func (gc *GenerateController) GenerateMessage(c *fiber.Ctx) error {
	var input struct {
		ContactID     uint   `json:"contact_id" validate:"required"`
		Purpose       string `json:"purpose"`
		Segment       string `json:"segment"`
		CustomContext string `json:"custom_context" validate:"omitempty,max=2000"`
		NumVariations int    `json:"num_variations" validate:"omitempty,min=1,max=3"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Purpose == "" {
		input.Purpose = "reconnect"
	}
	if !utils.Contains(utils.ValidPurposes, input.Purpose) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid purpose, must be one of: "+strings.Join(utils.ValidPurposes, ", "), nil)
	}
	if input.Segment != "" && !utils.Contains(models.AllSegments, input.Segment) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid segment", nil)
	}
	if input.NumVariations == 0 {
		input.NumVariations = 2
	}

	result, err := gc.Generator.Generate(c.Context(), input.ContactID, input.Purpose, input.Segment, input.CustomContext, input.NumVariations)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
		}
		utils.LogError("message_generation", err, map[string]interface{}{
			"contact_id": input.ContactID,
			"purpose":    input.Purpose,
		})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Message generation failed", err)
	}

	utils.LogEvent("message_generated", map[string]interface{}{
		"contact_id":  input.ContactID,
		"purpose":     input.Purpose,
		"variations":  len(result.Variations),
		"tokens_used": result.TokensUsed,
	})

	return c.JSON(utils.SuccessResponse(result))
}
