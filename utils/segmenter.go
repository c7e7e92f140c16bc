package utils

import (
	"fmt"
	"log"
	"strings"

	"linkedcrm/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SegmentRule is one audience segment expressed as data: a location allowlist
// plus a keyword allowlist. Keeping the rules as tables means new segments are
// a data change, not an algorithm change.
type SegmentRule struct {
	Tag       string
	Locations []string
	Keywords  []string
	// When true the rule needs both a location and a keyword hit; when false
	// a location hit alone is enough.
	RequireKeywords bool
}

var latamLocations = []string{
	// Countries
	"mexico", "méxico", "colombia", "argentina", "chile", "peru", "perú",
	"ecuador", "venezuela", "guatemala", "cuba", "bolivia",
	"dominican republic", "república dominicana", "honduras", "paraguay",
	"el salvador", "nicaragua", "costa rica", "panama", "panamá", "uruguay",
	"puerto rico",
	// Regions
	"latam", "latin america", "américa latina", "latinoamérica",
	"south america", "central america", "sudamérica", "centroamérica",
	// Major cities
	"mexico city", "ciudad de méxico", "cdmx", "bogotá", "bogota",
	"buenos aires", "santiago", "lima", "quito", "caracas", "montevideo",
	"san josé", "san jose", "guatemala city", "tegucigalpa", "san salvador",
	"managua", "panama city", "santo domingo", "havana", "la habana",
	"asunción", "asuncion", "la paz", "sucre",
	"medellín", "medellin", "cartagena", "cali", "barranquilla",
	"guadalajara", "monterrey", "tijuana", "cancún", "cancun",
	"córdoba", "cordoba", "rosario", "mendoza",
	"valparaíso", "valparaiso", "concepción", "concepcion",
	"arequipa", "trujillo", "cusco", "cuzco",
	"guayaquil", "cuenca",
	"maracaibo", "valencia", "barquisimeto",
}

var entrepreneurKeywords = []string{
	// English
	"entrepreneur", "founder", "co-founder", "cofounder",
	"owner", "ceo", "chief executive",
	"small business", "startup", "start-up",
	"self-employed", "freelance", "independent",
	"solopreneur", "business owner",
	// Spanish
	"emprendedor", "emprendedora", "fundador", "fundadora",
	"cofundador", "cofundadora", "dueño", "dueña",
	"negocio propio", "mi empresa", "mi negocio",
	"empresario", "empresaria", "autónomo", "autónoma",
	"independiente", "cuenta propia",
}

var pnwLocations = []string{
	// Washington
	"seattle", "washington", ", wa", "bellevue", "redmond", "kirkland",
	"tacoma", "spokane", "olympia", "everett", "renton", "kent",
	"federal way", "yakima", "bellingham", "vancouver, wa",
	// Oregon
	"portland", "oregon", ", or", "eugene", "salem", "bend", "corvallis",
	"beaverton", "hillsboro", "gresham", "medford",
	// British Columbia
	"vancouver", "british columbia", ", bc", "victoria", "burnaby",
	"surrey", "richmond", "kelowna", "vancouver, bc",
	// Region names
	"pacific northwest", "pnw", "puget sound", "cascadia",
}

var aiKeywords = []string{
	// Core AI/ML
	"artificial intelligence", "machine learning", "deep learning",
	"ai ", " ai", "ai/ml", "ml ", " ml",
	"neural network", "computer vision", "nlp",
	"natural language processing", "natural language",
	// Models & tech
	"llm", "large language model", "gpt", "transformer",
	"generative ai", "gen ai", "genai",
	"chatgpt", "claude", "anthropic", "openai",
	"langchain", "hugging face", "huggingface",
	// Data science adjacent
	"data science", "data scientist", "ml engineer",
	"machine learning engineer", "ai engineer",
	"ai researcher", "ml researcher", "research scientist",
	// Specific domains
	"reinforcement learning", "speech recognition",
	"recommendation system", "predictive model",
	"tensorflow", "pytorch",
}

// segmentRules covers the location/keyword segments; the job_target segment
// matches against the managed target-company list instead.
var segmentRules = []SegmentRule{
	{
		Tag:             models.SegmentLATAM,
		Locations:       latamLocations,
		Keywords:        entrepreneurKeywords,
		RequireKeywords: false,
	},
	{
		Tag:             models.SegmentCascadia,
		Locations:       pnwLocations,
		Keywords:        aiKeywords,
		RequireKeywords: true,
	},
}

// MatchesRule applies one segment rule to a contact's profile fields.
func MatchesRule(contact *models.Contact, rule SegmentRule) bool {
	location := strings.ToLower(contact.Location)
	locationMatch := false
	for _, loc := range rule.Locations {
		if strings.Contains(location, loc) {
			locationMatch = true
			break
		}
	}
	if !locationMatch {
		return false
	}
	if !rule.RequireKeywords {
		return true
	}

	text := strings.ToLower(strings.Join([]string{
		contact.Headline, contact.Position, contact.Company, contact.About,
	}, " "))
	for _, kw := range rule.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MatchesTargetCompany checks the contact's company against the target list.
// Substring matches run both ways so "Stripe" matches "Stripe, Inc." and
// "Google Cloud" matches "Google".
func MatchesTargetCompany(company string, targets []string) bool {
	company = strings.ToLower(strings.TrimSpace(company))
	if company == "" {
		return false
	}
	for _, target := range targets {
		if company == target || strings.Contains(company, target) || strings.Contains(target, company) {
			return true
		}
	}
	return false
}

// SegmentContact returns the tags a contact matches, in canonical order.
// Pure: depends only on the profile fields and the target-company list.
func SegmentContact(contact *models.Contact, targetCompanies []string) []string {
	var tags []string
	for _, rule := range segmentRules {
		if MatchesRule(contact, rule) {
			tags = append(tags, rule.Tag)
		}
	}
	if MatchesTargetCompany(contact.Company, targetCompanies) {
		tags = append(tags, models.SegmentJobTarget)
	}
	return tags
}

// Segmenter applies segment rules and persists the resulting tags.
type Segmenter struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSegmenter(db *gorm.DB, logger *log.Logger) *Segmenter {
	return &Segmenter{DB: db, Logger: logger}
}

// TargetCompanyNames loads the target-company list, lowercased for matching.
func (s *Segmenter) TargetCompanyNames() ([]string, error) {
	var companies []models.TargetCompany
	if err := s.DB.Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to load target companies: %w", err)
	}
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, strings.ToLower(c.Name))
	}
	return names, nil
}

// UpdateContactSegments recomputes and stores one contact's tag set.
func (s *Segmenter) UpdateContactSegments(contact *models.Contact, targetCompanies []string) ([]string, error) {
	if targetCompanies == nil {
		var err error
		targetCompanies, err = s.TargetCompanyNames()
		if err != nil {
			return nil, err
		}
	}

	tags := SegmentContact(contact, targetCompanies)
	contact.SegmentTags = datatypes.NewJSONSlice(tags)

	if err := s.DB.Model(contact).Update("segment_tags", contact.SegmentTags).Error; err != nil {
		return nil, fmt.Errorf("failed to update segments for contact %d: %w", contact.ID, err)
	}
	return tags, nil
}

// SegmentBatchResult reports a batch segmentation pass.
type SegmentBatchResult struct {
	ContactsProcessed int            `json:"contacts_processed"`
	BySegment         map[string]int `json:"by_segment"`
	NoSegment         int            `json:"no_segment"`
	Errors            []string       `json:"errors,omitempty"`
}

// SegmentAll re-tags every contact against the current rules and target list.
func (s *Segmenter) SegmentAll() (*SegmentBatchResult, error) {
	targets, err := s.TargetCompanyNames()
	if err != nil {
		return nil, err
	}

	var contacts []models.Contact
	if err := s.DB.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	result := &SegmentBatchResult{BySegment: make(map[string]int)}
	for i := range contacts {
		tags, err := s.UpdateContactSegments(&contacts[i], targets)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.ContactsProcessed++
		for _, tag := range tags {
			result.BySegment[tag]++
		}
		if len(tags) == 0 {
			result.NoSegment++
		}
	}
	return result, nil
}
