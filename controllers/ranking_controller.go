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

type RankingController struct {
	DB     *gorm.DB
	Ranker *utils.Ranker
	Logger *log.Logger
}

func NewRankingController(db *gorm.DB, ranker *utils.Ranker, logger *log.Logger) *RankingController {
	return &RankingController{
		DB:     db,
		Ranker: ranker,
		Logger: logger,
	}
}

// DailyRecommendations returns today's ranked outreach picks. Contacts with
// an active queue item are excluded; the queue is where acted-on contacts
// live.
func (rk *RankingController) DailyRecommendations(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	segment := c.Query("segment")
	if segment != "" && !utils.Contains(models.AllSegments, segment) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid segment", nil)
	}

	recs, err := rk.Ranker.DailyRecommendations(limit, segment)
	if err != nil {
		utils.LogError("daily_recommendations", err, map[string]interface{}{"segment": segment})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build recommendations", err)
	}

	return c.JSON(utils.SuccessResponse(recs))
}

// ContactPriority returns the full score breakdown for one contact.
func (rk *RankingController) ContactPriority(c *fiber.Ctx) error {
	contactID := utils.ParseUint(c.Params("id"))

	rec, err := rk.Ranker.ContactPriority(contactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
		}
		if errors.Is(err, utils.ErrContactNotScored) {
			return utils.ErrorResponse(c, fiber.StatusPreconditionFailed, "Contact has no warmth score yet; import message data first", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute priority", err)
	}

	return c.JSON(utils.SuccessResponse(rec))
}
