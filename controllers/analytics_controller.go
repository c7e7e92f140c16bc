package controller

import (
	"log"
	"math"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linkedcrm/models"
	"linkedcrm/utils"
)

type AnalyticsController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAnalyticsController(db *gorm.DB, logger *log.Logger) *AnalyticsController {
	return &AnalyticsController{
		DB:     db,
		Logger: logger,
	}
}

// seniorTitleRegex matches position titles that indicate senior-level contacts.
var seniorTitleRegex = regexp.MustCompile(`(?i)\b(vp|vice president|director|c[etofi]o|chief|head of|president|partner|founder|co-founder|cofounder|general manager|svp|evp|principal|fellow)\b`)

// Archetype describes the overall shape of a network and how to work it.
type Archetype struct {
	Name        string         `json:"archetype"`
	Scores      map[string]int `json:"scores"`
	Description string         `json:"description"`
	Strategy    string         `json:"strategy"`
}

var archetypeProfiles = map[string][2]string{
	"Thought Leader": {
		"Wide reach across many organizations. Your network spans industries and roles.",
		"Leverage broadcasting: a single post about your goals could generate dozens of warm leads.",
	},
	"Insider": {
		"Deep connections within a few key companies. Strong institutional knowledge.",
		"Work your internal networks. You have density where it matters, so use referrals and insider knowledge.",
	},
	"Connector": {
		"High diversity across many unique companies with strong bridging potential.",
		"Trade introductions. Your value is in connecting people across different circles.",
	},
	"Climber": {
		"High access to senior leaders: VPs, Directors, C-suite, and Founders.",
		"Target executive referrals. You have decision-maker access most people don't.",
	},
	"Builder": {
		"Balanced, growing network with a mix of seniority and company diversity.",
		"Invest in depth. Turn surface connections into substantive relationships through consistent engagement.",
	},
}

// ClassifyArchetype scores the network against five archetypes and returns
// the best match.
func ClassifyArchetype(uniqueCompanies, totalContacts int, seniorPct, avgContactsPerCompany, topCompanyConcentration float64) Archetype {
	scores := map[string]int{
		"Thought Leader": 0,
		"Insider":        0,
		"Connector":      0,
		"Climber":        0,
		"Builder":        0,
	}

	var diversityRatio float64
	if totalContacts > 0 {
		diversityRatio = float64(uniqueCompanies) / float64(totalContacts)
		if diversityRatio > 0.6 {
			scores["Connector"] += 3
			scores["Thought Leader"] += 2
		} else if diversityRatio > 0.4 {
			scores["Connector"] += 2
			scores["Thought Leader"]++
		}
	}

	if topCompanyConcentration > 0.15 {
		scores["Insider"] += 3
	} else if topCompanyConcentration > 0.08 {
		scores["Insider"]++
	}

	if avgContactsPerCompany > 3 {
		scores["Insider"] += 2
	}

	if seniorPct > 35 {
		scores["Climber"] += 3
	} else if seniorPct > 25 {
		scores["Climber"] += 2
	}

	if totalContacts > 2000 {
		scores["Thought Leader"] += 2
	} else if totalContacts > 1000 {
		scores["Thought Leader"]++
	}

	if diversityRatio > 0.3 && seniorPct > 10 && totalContacts > 200 && topCompanyConcentration < 0.15 {
		scores["Builder"] += 2
	}

	// Deterministic winner: highest score, ties broken by fixed order.
	order := []string{"Thought Leader", "Insider", "Connector", "Climber", "Builder"}
	best := order[0]
	for _, name := range order {
		if scores[name] > scores[best] {
			best = name
		}
	}

	profile := archetypeProfiles[best]
	return Archetype{
		Name:        best,
		Scores:      scores,
		Description: profile[0],
		Strategy:    profile[1],
	}
}

type companyCount struct {
	Company string `json:"company"`
	Count   int64  `json:"count"`
}

// NetworkOverview returns a snapshot of the network: totals, warmth and
// segment distributions, top companies, seniority, and archetype.
func (ac *AnalyticsController) NetworkOverview(c *fiber.Ctx) error {
	var totalContacts, withMessages int64
	if err := ac.DB.Model(&models.Contact{}).Count(&totalContacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}
	if err := ac.DB.Model(&models.Contact{}).Where("total_messages > 0").Count(&withMessages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}

	var uniqueCompanies int64
	if err := ac.DB.Model(&models.Contact{}).
		Where("company IS NOT NULL AND company != ''").
		Distinct("company").Count(&uniqueCompanies).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count companies", err)
	}

	warmthBuckets := map[string]int64{}
	var bucketed int64
	for _, b := range []struct {
		name string
		cond string
	}{
		{"hot", "warmth_score >= 70"},
		{"warm", "warmth_score >= 40 AND warmth_score < 70"},
		{"cool", "warmth_score >= 10 AND warmth_score < 40"},
		{"cold", "warmth_score >= 1 AND warmth_score < 10"},
	} {
		var count int64
		if err := ac.DB.Model(&models.Contact{}).Where(b.cond).Count(&count).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
		}
		warmthBuckets[b.name] = count
		bucketed += count
	}
	warmthBuckets["none"] = totalContacts - bucketed

	var avgWarmth float64
	row := ac.DB.Model(&models.Contact{}).Where("warmth_score > 0").
		Select("AVG(warmth_score)").Row()
	if err := row.Scan(&avgWarmth); err != nil {
		avgWarmth = 0
	}

	// Segment distribution with per-segment warmth averages.
	segments := map[string]fiber.Map{}
	for _, tag := range models.AllSegments {
		pattern := "%\"" + tag + "\"%"

		var count int64
		if err := ac.DB.Model(&models.Contact{}).
			Where("segment_tags LIKE ?", pattern).Count(&count).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count segments", err)
		}

		var segAvg float64
		segRow := ac.DB.Model(&models.Contact{}).
			Where("segment_tags LIKE ? AND warmth_score > 0", pattern).
			Select("AVG(warmth_score)").Row()
		if err := segRow.Scan(&segAvg); err != nil {
			segAvg = 0
		}

		segments[tag] = fiber.Map{
			"count":          count,
			"average_warmth": math.Round(segAvg*10) / 10,
		}
	}

	var untagged int64
	if err := ac.DB.Model(&models.Contact{}).
		Where("segment_tags IS NULL OR segment_tags = '' OR segment_tags = '[]'").
		Count(&untagged).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count segments", err)
	}
	var untaggedAvg float64
	untaggedRow := ac.DB.Model(&models.Contact{}).
		Where("(segment_tags IS NULL OR segment_tags = '' OR segment_tags = '[]') AND warmth_score > 0").
		Select("AVG(warmth_score)").Row()
	if err := untaggedRow.Scan(&untaggedAvg); err != nil {
		untaggedAvg = 0
	}
	segments["untagged"] = fiber.Map{
		"count":          untagged,
		"average_warmth": math.Round(untaggedAvg*10) / 10,
	}

	var topCompanies []companyCount
	if err := ac.DB.Model(&models.Contact{}).
		Select("company, COUNT(id) AS count").
		Where("company IS NOT NULL AND company != ''").
		Group("company").Order("count DESC").Limit(10).
		Scan(&topCompanies).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to rank companies", err)
	}

	// Seniority check runs over titles in Go; the pattern is too much for SQL.
	var positions []string
	if err := ac.DB.Model(&models.Contact{}).
		Where("position IS NOT NULL AND position != ''").
		Pluck("position", &positions).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch positions", err)
	}
	seniorCount := 0
	for _, p := range positions {
		if seniorTitleRegex.MatchString(p) {
			seniorCount++
		}
	}
	var seniorPct float64
	if totalContacts > 0 {
		seniorPct = math.Round(float64(seniorCount)/float64(totalContacts)*1000) / 10
	}

	var topCompanyConcentration, avgContactsPerCompany float64
	if len(topCompanies) > 0 && totalContacts > 0 {
		topCompanyConcentration = float64(topCompanies[0].Count) / float64(totalContacts)
	}
	if uniqueCompanies > 0 {
		avgContactsPerCompany = float64(totalContacts) / float64(uniqueCompanies)
	}

	archetype := ClassifyArchetype(int(uniqueCompanies), int(totalContacts), seniorPct, avgContactsPerCompany, topCompanyConcentration)

	return c.JSON(fiber.Map{
		"totals": fiber.Map{
			"contacts":         totalContacts,
			"with_messages":    withMessages,
			"without_messages": totalContacts - withMessages,
			"unique_companies": uniqueCompanies,
			"senior_contacts":  seniorCount,
			"senior_pct":       seniorPct,
		},
		"warmth_distribution": warmthBuckets,
		"average_warmth":      math.Round(avgWarmth*10) / 10,
		"segments":            segments,
		"top_companies":       topCompanies,
		"archetype":           archetype,
	})
}
