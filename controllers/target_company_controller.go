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

type TargetCompanyController struct {
	DB        *gorm.DB
	Segmenter *utils.Segmenter
	Logger    *log.Logger
}

func NewTargetCompanyController(db *gorm.DB, segmenter *utils.Segmenter, logger *log.Logger) *TargetCompanyController {
	return &TargetCompanyController{
		DB:        db,
		Segmenter: segmenter,
		Logger:    logger,
	}
}

// ListTargetCompanies returns all target companies.
func (tc *TargetCompanyController) ListTargetCompanies(c *fiber.Ctx) error {
	var companies []models.TargetCompany
	if err := tc.DB.Order("name ASC").Find(&companies).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch target companies", err)
	}
	return c.JSON(utils.SuccessResponse(companies))
}

// CreateTargetCompany adds a company to the job-target list and re-runs
// segmentation so job_target tags pick it up.
func (tc *TargetCompanyController) CreateTargetCompany(c *fiber.Ctx) error {
	var input struct {
		Name  string `json:"name" validate:"required,min=1,max=200"`
		Notes string `json:"notes" validate:"omitempty,max=1000"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	input.Name = strings.TrimSpace(input.Name)

	var existing models.TargetCompany
	if err := tc.DB.Where("name = ?", input.Name).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Target company already exists", nil)
	}

	company := models.TargetCompany{
		Name:  input.Name,
		Notes: input.Notes,
	}
	if err := tc.DB.Create(&company).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create target company", err)
	}

	if _, err := tc.Segmenter.SegmentAll(); err != nil {
		utils.LogError("target_company_resegment", err, map[string]interface{}{"company": company.Name})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(company))
}

// UpdateTargetCompany edits a target company's name or notes.
func (tc *TargetCompanyController) UpdateTargetCompany(c *fiber.Ctx) error {
	companyID := utils.ParseUint(c.Params("id"))

	var company models.TargetCompany
	if err := tc.DB.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Target company not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch target company", err)
	}

	var input struct {
		Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
		Notes *string `json:"notes" validate:"omitempty,max=1000"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	updates := map[string]interface{}{}
	renamed := false
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
		renamed = true
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(updates) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Nothing to update", nil)
	}

	if err := tc.DB.Model(&company).Updates(updates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update target company", err)
	}

	if renamed {
		if _, err := tc.Segmenter.SegmentAll(); err != nil {
			utils.LogError("target_company_resegment", err, map[string]interface{}{"company_id": companyID})
		}
	}

	return c.JSON(utils.SuccessResponse(company))
}

// DeleteTargetCompany removes a company and re-runs segmentation so stale
// job_target tags are dropped.
func (tc *TargetCompanyController) DeleteTargetCompany(c *fiber.Ctx) error {
	companyID := utils.ParseUint(c.Params("id"))

	var company models.TargetCompany
	if err := tc.DB.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Target company not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch target company", err)
	}

	if err := tc.DB.Delete(&company).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete target company", err)
	}

	if _, err := tc.Segmenter.SegmentAll(); err != nil {
		utils.LogError("target_company_resegment", err, map[string]interface{}{"company": company.Name})
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}
