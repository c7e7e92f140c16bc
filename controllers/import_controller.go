package controller

import (
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linkedcrm/models"
	"linkedcrm/utils"
)

type ImportController struct {
	DB     *gorm.DB
	Parser *utils.ExportParser
	Logger *log.Logger
}

func NewImportController(db *gorm.DB, parser *utils.ExportParser, logger *log.Logger) *ImportController {
	return &ImportController{
		DB:     db,
		Parser: parser,
		Logger: logger,
	}
}

// readUploadedFile pulls the multipart file body for the given form field.
func readUploadedFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return content, fileHeader.Filename, nil
}

// UploadConnections ingests a LinkedIn Connections.csv export.
func (ic *ImportController) UploadConnections(c *fiber.Ctx) error {
	content, filename, err := readUploadedFile(c, "file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing or unreadable file upload", err)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Expected a .csv file", nil)
	}

	result, err := ic.Parser.ParseConnections(content, filename)
	if err != nil {
		utils.LogError("connections_import", err, map[string]interface{}{"filename": filename})
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Failed to parse connections export", err)
	}

	return c.JSON(utils.SuccessResponse(result))
}

// UploadMessages ingests a LinkedIn messages.csv export. Message stats and
// warmth scores are refreshed for every contact touched.
func (ic *ImportController) UploadMessages(c *fiber.Ctx) error {
	content, filename, err := readUploadedFile(c, "file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing or unreadable file upload", err)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Expected a .csv file", nil)
	}

	result, err := ic.Parser.ParseMessages(content, filename)
	if err != nil {
		utils.LogError("messages_import", err, map[string]interface{}{"filename": filename})
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Failed to parse messages export", err)
	}

	return c.JSON(utils.SuccessResponse(result))
}

// UploadHistory lists past imports, newest first.
func (ic *ImportController) UploadHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var uploads []models.DataUpload
	if err := ic.DB.Order("created_at DESC").Limit(limit).Find(&uploads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch upload history", err)
	}

	return c.JSON(utils.SuccessResponse(uploads))
}
